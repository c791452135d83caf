package hwcodec

import (
	"fmt"
)

// ColorFormat is an OMX color format identifier.
type ColorFormat int32

const (
	ColorFormatUnknown              = ColorFormat(0)
	ColorFormatYUV420Planar         = ColorFormat(0x13)
	ColorFormatYUV420SemiPlanar     = ColorFormat(0x15)
	ColorFormatQCOMYVU420SemiPlanar = ColorFormat(0x7FA30C00)
)

func (f ColorFormat) String() string {
	switch f {
	case ColorFormatUnknown:
		return "unknown"
	case ColorFormatYUV420Planar:
		return "YUV420Planar"
	case ColorFormatYUV420SemiPlanar:
		return "YUV420SemiPlanar"
	case ColorFormatQCOMYVU420SemiPlanar:
		return "QCOM_YVU420SemiPlanar"
	}
	return fmt.Sprintf("0x%X", int32(f))
}
