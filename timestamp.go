package hwvideodecoder

// NoPTS marks an absent timestamp.
const NoPTS float64 = -(1 << 52)

func IsValidPTS(ts float64) bool {
	return ts != NoPTS
}

// PTSToInt converts a player timestamp (microseconds) to the integer form
// carried in buffer metadata.
func PTSToInt(ts float64) int64 {
	return int64(ts)
}

func PTSFromInt(ts int64) float64 {
	return float64(ts)
}

// inputTimestamp picks dts if it is valid, otherwise pts, otherwise 0.
func inputTimestamp(dts, pts float64) int64 {
	switch {
	case IsValidPTS(dts):
		return PTSToInt(dts)
	case IsValidPTS(pts):
		return PTSToInt(pts)
	default:
		return 0
	}
}
