// pool.go implements a pool for reusing Record objects.

package frame

import (
	"github.com/xaionaro-go/hwvideodecoder/pool"
)

var Pool = pool.NewPool(
	func() *Record { return &Record{} },
	func(r *Record) {
		r.Status = 0
		r.Width = 0
		r.Height = 0
		r.PTS = 0
		r.Buffer = nil
	},
)
