package hwvideodecoder

import (
	"context"

	"github.com/xaionaro-go/hwvideodecoder/internal"
)

func assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	internal.Assert(ctx, mustBeTrue, extraArgs...)
}
