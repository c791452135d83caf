package hwvideodecoder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	cfg, err = ReadConfig(strings.NewReader(`
fill_threshold: 8
input_read_timeout: 5ms
max_input_bytes: 1048576
disable_quirks: true
`))
	require.NoError(t, err)
	require.Equal(t, Config{
		FillThreshold:    8,
		InputReadTimeout: 5 * time.Millisecond,
		ResetSettleDelay: DefaultResetSettleDelay,
		MaxInputBytes:    1 << 20,
		DisableQuirks:    true,
	}, cfg)

	_, err = ReadConfig(strings.NewReader("fill_threshold: -1\n"))
	require.Error(t, err)

	_, err = ReadConfig(strings.NewReader("fill_threshold: [\n"))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwdecode.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allow_software_decoders: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.AllowSoftwareDecoders)
	require.Equal(t, DefaultFillThreshold, cfg.FillThreshold)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestOptionsConfig(t *testing.T) {
	require.Equal(t, DefaultConfig(), Options(nil).Config())

	cfg := Options{
		OptionFillThreshold(3),
		OptionConfig(Config{FillThreshold: 10, ResetSettleDelay: time.Second}),
		OptionFillThreshold(5),
		OptionAllowSoftwareDecoders(true),
	}.Config()
	require.Equal(t, 5, cfg.FillThreshold)
	require.Equal(t, time.Second, cfg.ResetSettleDelay)
	require.True(t, cfg.AllowSoftwareDecoders)
}

func TestTimestamps(t *testing.T) {
	require.False(t, IsValidPTS(NoPTS))
	require.True(t, IsValidPTS(0))
	require.Equal(t, int64(40000), PTSToInt(40000.9))
	require.Equal(t, float64(-5), PTSFromInt(-5))
	require.Equal(t, int64(1), inputTimestamp(1, 2))
	require.Equal(t, int64(2), inputTimestamp(NoPTS, 2))
	require.Equal(t, int64(0), inputTimestamp(NoPTS, NoPTS))
}
