package protocol

import (
	"bufio"
	"bytes"
	"io"

	"github.com/juju/errors"
)

const DefaultReadLimit = 512

// FrameReader splits console byte stream into frames.
// Frame length is derived from header argument kind.
// Trailing padding is consumed only if already buffered, so short frames do not block.
// Console answers one query at a time, so buffered bytes after a frame belong to it.
type FrameReader struct {
	buf bytes.Buffer
	r   *bufio.Reader
	max int
}

func (fr *FrameReader) Attach(r *bufio.Reader, max int) {
	if max <= 0 {
		max = DefaultReadLimit
	}
	fr.max = max
	fr.r = r
}

// Read returns next frame, valid until next Read.
// io.EOF only when stream ended at frame boundary.
// Frames of unknown size are returned as header plus whatever was already buffered,
// so caller can report them with DecodeResponse.
func (fr *FrameReader) Read() ([]byte, error) {
	header, err := fr.r.Peek(HeaderSize)
	switch err {
	case nil:
	case io.EOF:
		if len(header) == 0 {
			return nil, err
		}
		return nil, errors.Annotatef(io.ErrUnexpectedEOF, "header length=%d", len(header))
	default:
		return nil, errors.Annotate(err, "header")
	}

	h, err := DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	length, tail := FrameSize(h.Argument)
	if length == 0 {
		length = fr.r.Buffered()
		if length > fr.max {
			length = fr.max
		}
		tail = length
	}
	if tail > fr.max {
		tail = fr.max
	}
	if length > fr.max {
		return nil, errors.Annotatef(ErrFrameTooLarge, "argument=%s length=%d max=%d", h.Argument, length, fr.max)
	}

	fr.buf.Reset()
	fr.buf.Grow(tail)
	buf := fr.buf.Bytes()[:length]
	_, err = io.ReadFull(fr.r, buf)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, errors.Annotatef(err, "frame body argument=%s", h.Argument)
	}
	// padding is taken only when already received, never waited for
	if pad := tail - length; pad > 0 {
		if n := fr.r.Buffered(); n < pad {
			pad = n
		}
		buf = buf[:length+pad]
		if _, err = io.ReadFull(fr.r, buf[length:]); err != nil {
			return nil, errors.Annotatef(err, "frame padding argument=%s", h.Argument)
		}
	}
	return buf, nil
}
