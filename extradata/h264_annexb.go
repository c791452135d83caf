// h264_annexb.go inspects H.264 Annex-B sequences.

package extradata

import (
	"fmt"
	"strings"
)

type H264NalUnitType uint8

const (
	H264NalUnitTypeUnspecified   H264NalUnitType = 0
	H264NalUnitTypeNonIDR        H264NalUnitType = 1
	H264NalUnitTypeIDR           H264NalUnitType = 5
	H264NalUnitTypeSEI           H264NalUnitType = 6
	H264NalUnitTypeSPS           H264NalUnitType = 7
	H264NalUnitTypePPS           H264NalUnitType = 8
	H264NalUnitTypeAUD           H264NalUnitType = 9
	H264NalUnitTypeEndOfSequence H264NalUnitType = 10
	H264NalUnitTypeEndOfStream   H264NalUnitType = 11
	H264NalUnitTypeFiller        H264NalUnitType = 12
)

type H264NALU struct {
	Raw  []byte
	Type H264NalUnitType
	NRI  int
}

func ParseH264NALU(b []byte) H264NALU {
	return H264NALU{
		Raw:  b,
		Type: H264NalUnitType(b[0] & 0x1F),
		NRI:  int(b[0]>>5) & 0x03,
	}
}

type H264AnnexB struct {
	Raw   []byte
	NALUs []H264NALU
}

func ParseH264AnnexB(b []byte) (*H264AnnexB, error) {
	seq := &H264AnnexB{
		Raw: append([]byte(nil), b...),
	}
	for _, nalu := range SplitAnnexB(b) {
		seq.NALUs = append(seq.NALUs, ParseH264NALU(nalu))
	}
	if len(seq.NALUs) == 0 {
		return nil, fmt.Errorf("no NAL units found")
	}
	return seq, nil
}

// Has reports if the sequence contains a NAL unit of the given type.
func (s *H264AnnexB) Has(t H264NalUnitType) bool {
	for _, n := range s.NALUs {
		if n.Type == t {
			return true
		}
	}
	return false
}

// IsDecodable reports if a decoder can start from this sequence: it
// carries an IDR slice preceded by the parameter sets.
func (s *H264AnnexB) IsDecodable() bool {
	var haveSPS, havePPS bool
	for _, n := range s.NALUs {
		switch n.Type {
		case H264NalUnitTypeSPS:
			haveSPS = true
		case H264NalUnitTypePPS:
			havePPS = true
		case H264NalUnitTypeIDR:
			return haveSPS && havePPS
		}
	}
	return false
}

func (s *H264AnnexB) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "H.264 Annex-B sequence (%d NAL units)\n", len(s.NALUs))
	for i, n := range s.NALUs {
		fmt.Fprintf(&sb, "  NALU[%d]: %s, len=%d, NRI=%d\n", i, n.Type, len(n.Raw), n.NRI)
	}
	return sb.String()
}

func (t H264NalUnitType) String() string {
	switch t {
	case H264NalUnitTypeNonIDR:
		return "non-IDR slice"
	case H264NalUnitTypeIDR:
		return "IDR slice"
	case H264NalUnitTypeSEI:
		return "SEI"
	case H264NalUnitTypeSPS:
		return "SPS"
	case H264NalUnitTypePPS:
		return "PPS"
	case H264NalUnitTypeAUD:
		return "AUD"
	case H264NalUnitTypeEndOfSequence:
		return "end of sequence"
	case H264NalUnitTypeEndOfStream:
		return "end of stream"
	case H264NalUnitTypeFiller:
		return "filler"
	}
	return fmt.Sprintf("type_%d", uint8(t))
}
