package hwvideodecoder

import (
	"time"
)

type Option interface {
	sessionOption()
}

type Options []Option

func OptionLatest[T Option](s Options) (ret T, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i].(T); ok {
			return v, true
		}
	}
	return
}

// OptionConfig replaces the whole config; the more specific options are
// applied on top of it.
type OptionConfig Config

func (OptionConfig) sessionOption() {}

type OptionFillThreshold int

func (OptionFillThreshold) sessionOption() {}

type OptionInputReadTimeout time.Duration

func (OptionInputReadTimeout) sessionOption() {}

type OptionResetSettleDelay time.Duration

func (OptionResetSettleDelay) sessionOption() {}

type OptionMaxInputBytes uint64

func (OptionMaxInputBytes) sessionOption() {}

type OptionDisableQuirks bool

func (OptionDisableQuirks) sessionOption() {}

type OptionAllowSoftwareDecoders bool

func (OptionAllowSoftwareDecoders) sessionOption() {}

func (s Options) Config() Config {
	cfg := DefaultConfig()
	if v, ok := OptionLatest[OptionConfig](s); ok {
		cfg = Config(v)
	}
	if v, ok := OptionLatest[OptionFillThreshold](s); ok {
		cfg.FillThreshold = int(v)
	}
	if v, ok := OptionLatest[OptionInputReadTimeout](s); ok {
		cfg.InputReadTimeout = time.Duration(v)
	}
	if v, ok := OptionLatest[OptionResetSettleDelay](s); ok {
		cfg.ResetSettleDelay = time.Duration(v)
	}
	if v, ok := OptionLatest[OptionMaxInputBytes](s); ok {
		cfg.MaxInputBytes = uint64(v)
	}
	if v, ok := OptionLatest[OptionDisableQuirks](s); ok {
		cfg.DisableQuirks = bool(v)
	}
	if v, ok := OptionLatest[OptionAllowSoftwareDecoders](s); ok {
		cfg.AllowSoftwareDecoders = bool(v)
	}
	return cfg
}
