package hwvideodecoder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFillThreshold    = 50
	DefaultResetSettleDelay = 100 * time.Millisecond
)

type Config struct {
	// FillThreshold is the amount of queued input buffers below which
	// Submit does not pull from the decoder.
	FillThreshold int `yaml:"fill_threshold"`

	// InputReadTimeout is how long the decoder's read of the input waits
	// for a buffer to be submitted. Zero means "do not wait".
	InputReadTimeout time.Duration `yaml:"input_read_timeout"`

	ResetSettleDelay time.Duration `yaml:"reset_settle_delay"`

	// MaxInputBytes limits the total size of queued and in-decoder input
	// buffers; zero means no limit.
	MaxInputBytes uint64 `yaml:"max_input_bytes"`

	DisableQuirks bool `yaml:"disable_quirks"`

	AllowSoftwareDecoders bool `yaml:"allow_software_decoders"`
}

func DefaultConfig() Config {
	return Config{
		FillThreshold:    DefaultFillThreshold,
		ResetSettleDelay: DefaultResetSettleDelay,
	}
}

func (cfg Config) validate() error {
	if cfg.FillThreshold < 0 {
		return fmt.Errorf("fill_threshold cannot be negative: %d", cfg.FillThreshold)
	}
	if cfg.InputReadTimeout < 0 {
		return fmt.Errorf("input_read_timeout cannot be negative: %v", cfg.InputReadTimeout)
	}
	if cfg.ResetSettleDelay < 0 {
		return fmt.Errorf("reset_settle_delay cannot be negative: %v", cfg.ResetSettleDelay)
	}
	return nil
}

// ReadConfig parses a YAML config; fields absent in the input keep their
// default values.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	b, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("unable to read the config: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse the config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()
	return ReadConfig(f)
}
