package hwvideodecoder

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/hwvideodecoder/buffer"
	"github.com/xaionaro-go/hwvideodecoder/hwcodec"
)

type ErrInvalidInput struct {
	Reason string
}

func (e ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

type ErrUnsupportedCodec struct {
	CodecID astiav.CodecID
}

func (e ErrUnsupportedCodec) Error() string {
	return fmt.Sprintf("codec %s is not supported by the hardware decoder", e.CodecID)
}

// ErrConnection means the hardware codec service could not be reached.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Sprintf("unable to connect to the hardware codec service: %v", e.Err)
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

type ErrDecoderStart struct {
	Err error
}

func (e ErrDecoderStart) Error() string {
	return fmt.Sprintf("unable to start the hardware decoder: %v", e.Err)
}

func (e ErrDecoderStart) Unwrap() error {
	return e.Err
}

type ErrUnsupportedColorFormat struct {
	ColorFormat hwcodec.ColorFormat
}

func (e ErrUnsupportedColorFormat) Error() string {
	return fmt.Sprintf("the decoder outputs %s, while only %s is supported", e.ColorFormat, hwcodec.ColorFormatYUV420Planar)
}

type ErrOutOfMemory = buffer.ErrOutOfMemory

// ErrDecode is a failure reported by the decoder for one pull; the session
// stays usable.
type ErrDecode struct {
	Status hwcodec.Status
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("decoding error: %s", e.Status)
}

// ErrPictureNotRetrieved is returned by Submit when a decode pull is due
// but the previously decoded picture was not taken with GetPicture yet.
type ErrPictureNotRetrieved struct{}

func (ErrPictureNotRetrieved) Error() string {
	return "the previous picture was not retrieved, yet"
}

type ErrNoPicture struct{}

func (ErrNoPicture) Error() string {
	return "no picture is available"
}

type ErrPictureStatus struct {
	Status hwcodec.Status
}

func (e ErrPictureStatus) Error() string {
	return fmt.Sprintf("the picture has a non-OK status: %s", e.Status)
}

type ErrShortBuffer struct {
	Required int
	Actual   int
}

func (e ErrShortBuffer) Error() string {
	return fmt.Sprintf("the decoded buffer is too short: %d < %d", e.Actual, e.Required)
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the session is closed"
}
