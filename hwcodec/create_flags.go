package hwcodec

import (
	"strings"
)

type CreateFlags uint32

const (
	CreateFlagClientNeedsFramebuffer CreateFlags = 1 << iota
	CreateFlagHardwareCodecsOnly
)

func (f CreateFlags) Has(flag CreateFlags) bool {
	return f&flag == flag
}

func (f CreateFlags) String() string {
	var s []string
	if f.Has(CreateFlagClientNeedsFramebuffer) {
		s = append(s, "ClientNeedsFramebuffer")
	}
	if f.Has(CreateFlagHardwareCodecsOnly) {
		s = append(s, "HardwareCodecsOnly")
	}
	return strings.Join(s, "|")
}
