package protocol

import (
	"fmt"

	"github.com/juju/errors"
)

// Encoding errors.
var (
	ErrFieldTooLong = fmt.Errorf("field too long")
	ErrNotEncodable = fmt.Errorf("value has no wire representation")
)

// Decoding errors.
var (
	ErrShortBuffer         = fmt.Errorf("buffer too short")
	ErrInvalidText         = fmt.Errorf("invalid text field")
	ErrUnsupportedArgument = fmt.Errorf("unsupported argument")
	ErrFrameTooLarge       = fmt.Errorf("frame is too large")
)

// Header decoded fine but no decoder exists for its argument kind.
var ErrUnimplementedResponse = fmt.Errorf("response decoding not implemented")

func IsEncoding(err error) bool {
	switch errors.Cause(err) {
	case ErrFieldTooLong, ErrNotEncodable:
		return true
	}
	return false
}

func IsDecoding(err error) bool {
	switch errors.Cause(err) {
	case ErrShortBuffer, ErrInvalidText, ErrUnsupportedArgument, ErrFrameTooLarge:
		return true
	}
	return false
}

func IsUnimplemented(err error) bool { return errors.Cause(err) == ErrUnimplementedResponse }
