package protocol

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []RecordHeader{
		{"", CommandRead, ArgumentNone},
		{"A", CommandSearch, ArgumentQuery},
		{"HP2000", CommandWrite, ArgumentNowRecord},
		{"PC2000", CommandRead, ArgumentSearch},
		{"1234567", CommandSearch, ArgumentHistoryData},
	}
	for _, c := range cases {
		c := c
		t.Run(c.String(), func(t *testing.T) {
			b, err := EncodeHeader(c)
			require.NoError(t, err)
			h, err := DecodeHeader(b[:])
			require.NoError(t, err)
			assert.Equal(t, c, h)
		})
	}
}

func TestPutTextWidth(t *testing.T) {
	t.Parallel()
	for _, width := range []int{deviceWidth, commandWidth, argumentWidth} {
		dst := make([]byte, width)
		err := putText(dst, strings.Repeat("X", width), "test")
		assert.Equal(t, ErrFieldTooLong, errors.Cause(err), "width=%d", width)
		assert.True(t, IsEncoding(err))

		dst = make([]byte, width)
		require.NoError(t, putText(dst, strings.Repeat("X", width-1), "test"))
		assert.Equal(t, byte(0), dst[width-1])
	}
}

func TestEncodeHeaderReject(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		h      RecordHeader
		expect error
	}{
		{"device-8", RecordHeader{"12345678", CommandRead, ArgumentQuery}, ErrFieldTooLong},
		{"device-long", RecordHeader{"HP2000-EXTENDED", CommandRead, ArgumentQuery}, ErrFieldTooLong},
		{"device-nul", RecordHeader{"HP\x002000", CommandRead, ArgumentQuery}, ErrNotEncodable},
		{"device-utf8", RecordHeader{"метео", CommandRead, ArgumentQuery}, ErrFieldTooLong},
		{"device-nonascii", RecordHeader{"é", CommandRead, ArgumentQuery}, ErrNotEncodable},
		{"command-unknown", RecordHeader{"PC2000", CommandUnknown, ArgumentQuery}, ErrNotEncodable},
		{"argument-unknown", RecordHeader{"PC2000", CommandRead, ArgumentUnknown}, ErrNotEncodable},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, err := EncodeHeader(c.h)
			require.Error(t, err)
			assert.Equal(t, c.expect, errors.Cause(err))
		})
	}
}

func TestDecodeHeaderTokens(t *testing.T) {
	t.Parallel()
	field := func(s string, width int) string {
		return s + strings.Repeat("\x00", width-len(s))
	}
	mk := func(device, command, argument string) []byte {
		return []byte(field(device, 8) + field(command, 8) + field(argument, 16))
	}
	cases := []struct {
		name   string
		input  []byte
		expect RecordHeader
	}{
		{"empty", mk("", "", ""), RecordHeader{"", CommandUnknown, ArgumentNone}},
		{"search-broadcast", mk("PC2000", "SEARCH", ""), RecordHeader{"PC2000", CommandSearch, ArgumentNone}},
		{"nowrecord", mk("HP2000", "WRITE", "NOWRECORD"), RecordHeader{"HP2000", CommandWrite, ArgumentNowRecord}},
		{"case-sensitive", mk("HP2000", "read", "nowrecord"), RecordHeader{"HP2000", CommandUnknown, ArgumentUnknown}},
		{"unknown", mk("HP2000", "SETUP", "TIME"), RecordHeader{"HP2000", CommandUnknown, ArgumentUnknown}},
		{"prefix", mk("HP2000", "READX", "NOWRECORDS"), RecordHeader{"HP2000", CommandUnknown, ArgumentUnknown}},
		{"garbage-after-nul", []byte("HP2000\x00Z" + "READ\x00abc" + field("QUERY\x00junk", 16)), RecordHeader{"HP2000", CommandRead, ArgumentQuery}},
		{"no-nul", []byte("ABCDEFGH" + "SEARCHXX" + "NOWRECORDNOWRECO"), RecordHeader{"", CommandUnknown, ArgumentNone}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			require.Len(t, c.input, HeaderSize)
			h, err := DecodeHeader(c.input)
			require.NoError(t, err)
			assert.Equal(t, c.expect, h)
		})
	}
}

func TestDecodeHeaderInvalid(t *testing.T) {
	t.Parallel()
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.Equal(t, ErrShortBuffer, errors.Cause(err))
	assert.True(t, IsDecoding(err))

	_, err = DecodeHeader(nil)
	assert.Equal(t, ErrShortBuffer, errors.Cause(err))

	b := make([]byte, HeaderSize)
	copy(b, "\xff\xfe\x00")
	_, err = DecodeHeader(b)
	assert.Equal(t, ErrInvalidText, errors.Cause(err))
}

func TestKindTotality(t *testing.T) {
	t.Parallel()
	for k := CommandUnknown; k <= CommandWrite; k++ {
		token, ok := k.Token()
		if k == CommandUnknown {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, k, ParseCommand(token))
	}
	for k := ArgumentUnknown; k <= ArgumentHistoryData; k++ {
		token, ok := k.Token()
		if k == ArgumentUnknown {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, k, ParseArgument(token))
	}
	token, _ := ArgumentNone.Token()
	assert.Equal(t, "", token)
	assert.Equal(t, ArgumentNone, ParseArgument(""))
	assert.Equal(t, CommandUnknown, ParseCommand(""))
}

func TestKindText(t *testing.T) {
	t.Parallel()
	for k := CommandUnknown; k <= CommandWrite; k++ {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var k2 CommandKind
		require.NoError(t, k2.UnmarshalText(b))
		assert.Equal(t, k, k2)
	}
	for k := ArgumentUnknown; k <= ArgumentHistoryData; k++ {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var k2 ArgumentKind
		require.NoError(t, k2.UnmarshalText(b))
		assert.Equal(t, k, k2, "text=%s", b)
	}
}
