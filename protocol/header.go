package protocol

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/juju/errors"
)

const (
	deviceWidth   = 8
	commandWidth  = 8
	argumentWidth = 16

	HeaderSize = deviceWidth + commandWidth + argumentWidth
)

type CommandKind uint8

const (
	CommandUnknown CommandKind = iota
	CommandRead
	CommandSearch
	CommandWrite
)

var commandNames = [...]string{
	CommandUnknown: "UNKNOWN",
	CommandRead:    "READ",
	CommandSearch:  "SEARCH",
	CommandWrite:   "WRITE",
}

// ParseCommand maps wire token to kind. Matching is exact.
func ParseCommand(token string) CommandKind {
	switch token {
	case "READ":
		return CommandRead
	case "SEARCH":
		return CommandSearch
	case "WRITE":
		return CommandWrite
	}
	return CommandUnknown
}

// Token returns wire text, ok=false for Unknown.
func (k CommandKind) Token() (string, bool) {
	if k == CommandUnknown || int(k) >= len(commandNames) {
		return "", false
	}
	return commandNames[k], true
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return fmt.Sprintf("CommandKind(%d)", k)
}

func (k CommandKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CommandKind) UnmarshalText(b []byte) error {
	*k = ParseCommand(string(b))
	return nil
}

type ArgumentKind uint8

const (
	ArgumentUnknown ArgumentKind = iota
	ArgumentNone
	ArgumentQuery
	ArgumentSearch
	ArgumentNowRecord
	ArgumentHistoryData
)

var argumentTokens = [...]string{
	ArgumentNone:        "",
	ArgumentQuery:       "QUERY",
	ArgumentSearch:      "SEARCH",
	ArgumentNowRecord:   "NOWRECORD",
	ArgumentHistoryData: "HISTORY_DATA",
}

// ParseArgument maps wire token to kind. Empty token is None.
func ParseArgument(token string) ArgumentKind {
	switch token {
	case "":
		return ArgumentNone
	case "QUERY":
		return ArgumentQuery
	case "SEARCH":
		return ArgumentSearch
	case "NOWRECORD":
		return ArgumentNowRecord
	case "HISTORY_DATA":
		return ArgumentHistoryData
	}
	return ArgumentUnknown
}

func (k ArgumentKind) Token() (string, bool) {
	if k == ArgumentUnknown || int(k) >= len(argumentTokens) {
		return "", false
	}
	return argumentTokens[k], true
}

func (k ArgumentKind) String() string {
	switch k {
	case ArgumentUnknown:
		return "UNKNOWN"
	case ArgumentNone:
		return "NONE"
	}
	if int(k) < len(argumentTokens) {
		return argumentTokens[k]
	}
	return fmt.Sprintf("ArgumentKind(%d)", k)
}

func (k ArgumentKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts String() output, so "NONE" is None.
func (k *ArgumentKind) UnmarshalText(b []byte) error {
	if string(b) == "NONE" {
		*k = ArgumentNone
		return nil
	}
	*k = ParseArgument(string(b))
	return nil
}

type RecordHeader struct {
	DeviceName string       `json:"device"`
	Command    CommandKind  `json:"command"`
	Argument   ArgumentKind `json:"argument"`
}

func (h RecordHeader) String() string {
	return fmt.Sprintf("(device=%s command=%s argument=%s)", h.DeviceName, h.Command, h.Argument)
}

func EncodeHeader(h RecordHeader) ([HeaderSize]byte, error) {
	var b [HeaderSize]byte
	err := h.encodeTo(b[:])
	return b, err
}

func (h RecordHeader) encodeTo(b []byte) error {
	ctoken, ok := h.Command.Token()
	if !ok {
		return errors.Annotatef(ErrNotEncodable, "command=%s", h.Command)
	}
	atoken, ok := h.Argument.Token()
	if !ok {
		return errors.Annotatef(ErrNotEncodable, "argument=%s", h.Argument)
	}
	if err := putText(b[0:deviceWidth], h.DeviceName, "device"); err != nil {
		return err
	}
	if err := putText(b[deviceWidth:deviceWidth+commandWidth], ctoken, "command"); err != nil {
		return err
	}
	return putText(b[deviceWidth+commandWidth:HeaderSize], atoken, "argument")
}

// DecodeHeader reads first HeaderSize bytes of b.
// Unrecognized tokens become Unknown kinds, not errors.
func DecodeHeader(b []byte) (RecordHeader, error) {
	h := RecordHeader{}
	if len(b) < HeaderSize {
		return h, errors.Annotatef(ErrShortBuffer, "header length=%d min=%d", len(b), HeaderSize)
	}
	device, err := getText(b[0:deviceWidth], "device")
	if err != nil {
		return h, err
	}
	ctoken, err := getText(b[deviceWidth:deviceWidth+commandWidth], "command")
	if err != nil {
		return h, err
	}
	atoken, err := getText(b[deviceWidth+commandWidth:HeaderSize], "argument")
	if err != nil {
		return h, err
	}
	h.DeviceName = device
	h.Command = ParseCommand(ctoken)
	h.Argument = ParseArgument(atoken)
	return h, nil
}

// dst must be zeroed, string must leave room for terminating NUL.
func putText(dst []byte, s string, field string) error {
	if len(s) >= len(dst) {
		return errors.Annotatef(ErrFieldTooLong, "%s=%q length=%d width=%d", field, s, len(s), len(dst))
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == 0 || c >= utf8.RuneSelf {
			return errors.Annotatef(ErrNotEncodable, "%s=%q non-ascii at %d", field, s, i)
		}
	}
	copy(dst, s)
	return nil
}

// Field without NUL terminator is treated as empty.
func getText(b []byte, field string) (string, error) {
	nul := bytes.IndexByte(b, 0)
	if nul < 0 {
		nul = 0
	}
	b = b[:nul]
	if !utf8.Valid(b) {
		return "", errors.Annotatef(ErrInvalidText, "%s=%x", field, b)
	}
	return string(b), nil
}
