// Package scaler converts decoded frames between pixel formats (and sizes).
package scaler

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
)

type Scaler interface {
	fmt.Stringer
	Close(context.Context) error
	ScaleFrame(ctx context.Context, src *astiav.Frame, dst *astiav.Frame) error
	SourcePixelFormat() astiav.PixelFormat
	DestinationPixelFormat() astiav.PixelFormat
}

// Matches reports if the scaler was created for the given source frame
// geometry and format.
func Matches(s Scaler, width, height int, pixFmt astiav.PixelFormat) bool {
	sw, ok := s.(*Software)
	if !ok {
		return false
	}
	return sw.SourceWidth() == width && sw.SourceHeight() == height && sw.SourcePixelFormat() == pixFmt
}
