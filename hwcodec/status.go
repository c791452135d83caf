// status.go defines the outcome codes of hardware decoder reads.

// Package hwcodec describes the contract of a hardware decoder session: a
// broker client creating decoders, decoders pulling encoded buffers from a
// Source and emitting decoded buffers or status codes.
package hwcodec

import (
	"fmt"
)

type Status int32

const (
	StatusOK            = Status(0)
	StatusEndOfStream   = Status(-1011)
	StatusFormatChanged = Status(-1012)
)

func (s Status) IsOK() bool {
	return s == StatusOK
}

// IsError returns true for everything except OK, end-of-stream and
// format-changed.
func (s Status) IsError() bool {
	switch s {
	case StatusOK, StatusEndOfStream, StatusFormatChanged:
		return false
	}
	return true
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusEndOfStream:
		return "END_OF_STREAM"
	case StatusFormatChanged:
		return "INFO_FORMAT_CHANGED"
	}
	return fmt.Sprintf("ERROR(%d)", int32(s))
}
