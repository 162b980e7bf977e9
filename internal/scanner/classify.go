package scanner

import "net/http"

// lengthTolerance is the body-length delta, in bytes, that still counts as
// the same response. The comparison is strict: a delta of exactly this value
// is not interesting.
const lengthTolerance = 100

// Baseline is the reference response of the unauthenticated request.
type Baseline struct {
	StatusCode int
	BodyLength int
}

// ProbeResult is the observed response to one variant.
type ProbeResult struct {
	Variant    Variant
	StatusCode int
	BodyLength int
}

// Classify reports whether r differs meaningfully from b. A 200 is always
// interesting regardless of the baseline.
func Classify(r ProbeResult, b Baseline) bool {
	interesting := false
	if r.StatusCode != b.StatusCode {
		interesting = true
	} else if abs(r.BodyLength-b.BodyLength) > lengthTolerance {
		interesting = true
	}
	if r.StatusCode == http.StatusOK {
		interesting = true
	}
	return interesting
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
