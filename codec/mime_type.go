package codec

import (
	"github.com/asticode/go-astiav"
)

// AndroidMIMEType returns the MIME type the hardware decoder service
// understands for the given codec. Only the codecs the decoder service
// is known to accept are listed.
func AndroidMIMEType(codecID astiav.CodecID) (string, bool) {
	switch codecID {
	case astiav.CodecIDH264:
		return "video/avc", true
	case astiav.CodecIDMpeg4:
		return "video/mp4v-es", true
	case astiav.CodecIDMpeg2Video:
		return "video/mpeg2", true
	case astiav.CodecIDVp8:
		return "video/x-vnd.on2.vp8", true
	case astiav.CodecIDVc1:
		return "video/x-ms-wmv", true
	}
	return "", false
}

// IANAMIMEType returns the IANA registered MIME type for the codecs
// AndroidMIMEType supports; used for logging only.
func IANAMIMEType(codecID astiav.CodecID) string {
	switch codecID {
	case astiav.CodecIDH264:
		return "video/H264"
	case astiav.CodecIDMpeg4:
		return "video/mp4v-es"
	case astiav.CodecIDMpeg2Video:
		return "video/mpeg"
	case astiav.CodecIDVp8:
		return "video/VP8"
	case astiav.CodecIDVc1:
		return "video/vc1"
	}
	return ""
}

// CodecIDFromAndroidMIMEType is the reverse of AndroidMIMEType.
func CodecIDFromAndroidMIMEType(mimeType string) (astiav.CodecID, bool) {
	for _, codecID := range []astiav.CodecID{
		astiav.CodecIDH264,
		astiav.CodecIDMpeg4,
		astiav.CodecIDMpeg2Video,
		astiav.CodecIDVp8,
		astiav.CodecIDVc1,
	} {
		if m, _ := AndroidMIMEType(codecID); m == mimeType {
			return codecID, true
		}
	}
	return astiav.CodecIDNone, false
}
