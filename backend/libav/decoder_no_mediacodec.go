//go:build !mediacodec
// +build !mediacodec

package libav

import (
	"context"
	"fmt"
)

func (d *decoder) setLowLatency(
	ctx context.Context,
	v bool,
) error {
	return fmt.Errorf("compiled without mediacodec support")
}
