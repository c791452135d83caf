// annexb.go converts between length-prefixed (AVCC) and start-code (Annex-B) NAL unit framing.

package extradata

import (
	"fmt"
)

var startCode = []byte{0, 0, 0, 1}

// SplitAnnexB returns copies of the NAL units of an Annex-B byte stream,
// without their start codes.
func SplitAnnexB(b []byte) [][]byte {
	var nalus [][]byte
	start := FindStartCode(b, 0)
	for start >= 0 {
		payload := start + startCodeLength(b, start)
		next := FindStartCode(b, payload)
		end := next
		if next < 0 {
			end = len(b)
		}
		if end > payload {
			nalus = append(nalus, append([]byte(nil), b[payload:end]...))
		}
		start = next
	}
	return nalus
}

func startCodeLength(b []byte, pos int) int {
	if pos+3 < len(b) && b[pos+2] == 0 && b[pos+3] == 1 {
		return 4
	}
	return 3
}

// FindStartCode returns the position of the first 3 or 4 byte start code
// at or after "start", or -1.
func FindStartCode(b []byte, start int) int {
	for i := start; i+3 <= len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 {
			continue
		}
		switch {
		case b[i+2] == 1:
			return i
		case i+4 <= len(b) && b[i+2] == 0 && b[i+3] == 1:
			return i
		}
	}
	return -1
}

// AppendAnnexB appends the NAL units to dst, each prefixed with a 4-byte
// start code.
func AppendAnnexB(dst []byte, nalus ...[]byte) []byte {
	for _, nalu := range nalus {
		dst = append(dst, startCode...)
		dst = append(dst, nalu...)
	}
	return dst
}

// AVCCToAnnexB converts a sample with length-prefixed NAL units (as stored
// in MP4 files) into an Annex-B byte stream appended to dst.
func AVCCToAnnexB(dst, sample []byte, nalLengthSize int) ([]byte, error) {
	if nalLengthSize < 1 || nalLengthSize > 4 {
		return dst, fmt.Errorf("invalid NAL length size: %d", nalLengthSize)
	}
	for pos := 0; pos < len(sample); {
		if pos+nalLengthSize > len(sample) {
			return dst, fmt.Errorf("truncated NAL length at offset %d", pos)
		}
		var naluLen int
		for _, c := range sample[pos : pos+nalLengthSize] {
			naluLen = naluLen<<8 | int(c)
		}
		pos += nalLengthSize
		if naluLen > len(sample)-pos {
			return dst, fmt.Errorf("NAL unit at offset %d is out of the sample: %d > %d", pos, naluLen, len(sample)-pos)
		}
		dst = AppendAnnexB(dst, sample[pos:pos+naluLen])
		pos += naluLen
	}
	return dst, nil
}
