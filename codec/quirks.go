// quirks.go defines flags for handling decoder-specific bugs and behaviors.

package codec

import "strings"

type Quirks uint64

const (
	// QuirkUnroundedDimensions: the decoder pads the output to
	// 16-aligned dimensions but reports the unaligned ones.
	QuirkUnroundedDimensions Quirks = 1 << iota
)

const componentPrefixSamsung = "OMX.SEC"

// QuirksForDecoderComponent returns the quirks of the decoder component
// with the given name (for example "OMX.SEC.avc.dec").
func QuirksForDecoderComponent(componentName string) Quirks {
	var q Quirks
	if strings.HasPrefix(componentName, componentPrefixSamsung) {
		q.Set(QuirkUnroundedDimensions)
	}
	return q
}

func (f Quirks) HasAll(flag Quirks) bool {
	return f&flag == flag
}

func (f Quirks) HasAny(flag Quirks) bool {
	return f&flag != 0
}

func (f *Quirks) Set(flag Quirks) {
	*f |= flag
}

func (f *Quirks) Unset(flag Quirks) {
	*f &^= flag
}

func (f Quirks) String() string {
	var s []string
	if f.HasAll(QuirkUnroundedDimensions) {
		s = append(s, "unrounded_dimensions")
	}
	return strings.Join(s, "|")
}
