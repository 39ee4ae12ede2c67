package protocol

import (
	"github.com/juju/errors"
)

// Response is a decoded console frame. Only *WeatherRecord exists so far,
// callers use type switch.
type Response interface {
	ResponseHeader() RecordHeader
}

// DecodeResponse dispatches on header argument kind.
// Recognized kinds without decoder fail with ErrUnimplementedResponse,
// unrecognized with ErrUnsupportedArgument.
func DecodeResponse(b []byte) (Response, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, errors.Annotate(err, "response")
	}
	switch h.Argument {
	case ArgumentNowRecord:
		r, err := DecodeNowRecord(b)
		if err != nil {
			return nil, err
		}
		return r, nil

	case ArgumentUnknown:
		return nil, errors.Annotatef(ErrUnsupportedArgument, "header=%s", h)

	default:
		return nil, errors.Annotatef(ErrUnimplementedResponse, "argument=%s", h.Argument)
	}
}

// FrameSize returns wire size bounds for argument kind, zeros if unknown.
// Bytes between min and max are trailing padding, some consoles omit it.
func FrameSize(arg ArgumentKind) (min, max int) {
	switch arg {
	case ArgumentNowRecord:
		return NowRecordMinSize, NowRecordSize
	}
	return 0, 0
}
