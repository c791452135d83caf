// h264_avcc.go parses H.264 AVCDecoderConfigurationRecord-s (the "avcC" box content).

package extradata

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

type H264AVCC struct {
	Raw           []byte
	Profile       uint8
	Compatibility uint8
	Level         uint8
	NalLengthSize int
	SPS           [][]byte
	PPS           [][]byte
	Trailing      []byte
}

type avccReader struct {
	b   []byte
	pos int
}

func (r *avccReader) byte() (uint8, bool) {
	if r.pos >= len(r.b) {
		return 0, false
	}
	c := r.b[r.pos]
	r.pos++
	return c, true
}

// parameterSets reads "count" 16-bit length prefixed units; a truncated
// unit is cut to what is available.
func (r *avccReader) parameterSets(count int) [][]byte {
	var result [][]byte
	for i := 0; i < count && r.pos+2 <= len(r.b); i++ {
		l := int(binary.BigEndian.Uint16(r.b[r.pos:]))
		r.pos += 2
		end := min(r.pos+l, len(r.b))
		if end <= r.pos {
			break
		}
		result = append(result, append([]byte(nil), r.b[r.pos:end]...))
		r.pos = end
	}
	return result
}

func ParseH264AVCC(b []byte) (*H264AVCC, error) {
	if len(b) < 7 {
		return nil, fmt.Errorf("data too short (%d bytes)", len(b))
	}
	if b[0] != 1 {
		return nil, fmt.Errorf("unsupported configurationVersion (%d)", b[0])
	}
	if b[4]&0xFC != 0xFC {
		return nil, fmt.Errorf("invalid reserved bits in byte 4 (0x%02X)", b[4])
	}

	cfg := &H264AVCC{
		Raw:           append([]byte(nil), b...),
		Profile:       b[1],
		Compatibility: b[2],
		Level:         b[3],
		NalLengthSize: int(b[4]&0x03) + 1,
	}

	r := &avccReader{b: b, pos: 6}
	cfg.SPS = r.parameterSets(int(b[5] & 0x1F))
	if numPPS, ok := r.byte(); ok {
		cfg.PPS = r.parameterSets(int(numPPS))
	}
	if r.pos < len(b) {
		cfg.Trailing = append([]byte(nil), b[r.pos:]...)
	}
	return cfg, nil
}

// ToAnnexB returns the SPS and PPS units as an Annex-B byte stream, the
// form hardware decoders expect in front of the first key frame.
func (c *H264AVCC) ToAnnexB() []byte {
	var out []byte
	out = AppendAnnexB(out, c.SPS...)
	out = AppendAnnexB(out, c.PPS...)
	return out
}

func (c *H264AVCC) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "H.264 AVCC: profile 0x%02X, compatibility 0x%02X, level 0x%02X, NAL length size %d\n",
		c.Profile, c.Compatibility, c.Level, c.NalLengthSize)
	for i, sps := range c.SPS {
		fmt.Fprintf(&sb, "  SPS[%d]: %d bytes: % X\n", i, len(sps), sps[:min(len(sps), 16)])
	}
	for i, pps := range c.PPS {
		fmt.Fprintf(&sb, "  PPS[%d]: %d bytes: % X\n", i, len(pps), pps[:min(len(pps), 16)])
	}
	if len(c.Trailing) > 0 {
		sb.WriteString("  trailing:\n")
		writeIndentedDump(&sb, c.Trailing, "    ")
	}
	return sb.String()
}

func writeIndentedDump(sb *strings.Builder, b []byte, prefix string) {
	for _, line := range strings.SplitAfter(hex.Dump(b), "\n") {
		if line == "" {
			continue
		}
		sb.WriteString(prefix)
		sb.WriteString(line)
	}
}
