package hwcodec

import (
	"fmt"
)

// Format is the stream metadata exchanged with the hardware decoder: the
// input format is fixed at session open, the output format is negotiated
// by the decoder.
type Format struct {
	MIMEType          string
	Width             int
	Height            int
	ColorFormat       ColorFormat
	DecoderComponent  string
	CodecSpecificData []byte
}

func (f Format) String() string {
	return fmt.Sprintf(
		"%s %dx%d color:%s component:'%s' csd:%d bytes",
		f.MIMEType, f.Width, f.Height, f.ColorFormat, f.DecoderComponent, len(f.CodecSpecificData),
	)
}
