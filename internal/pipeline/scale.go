package pipeline

import (
	"strconv"
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/config"
)

// ScaleResolver turns attribute-set scale codes into engineering factors.
type ScaleResolver struct {
	numerator  float64
	exceptions map[int64]struct{}
}

func NewScaleResolver(p config.ScaleProfile) ScaleResolver {
	r := ScaleResolver{numerator: p.Numerator, exceptions: map[int64]struct{}{}}
	if r.numerator == 0 {
		r.numerator = config.DefaultScaleNumerator
	}
	for _, code := range p.Exceptions {
		r.exceptions[int64(code)] = struct{}{}
	}
	return r
}

// Resolve returns the scale and the possibly overridden type. Format codes in
// the exception set carry pre-scaled integers: SIGNED16 with scale 0.
func (r ScaleResolver) Resolve(scaleValue int64, scaleFormat string, t internal.CanonicalType) (float64, internal.CanonicalType) {
	if r.isException(scaleFormat) {
		return 0, internal.TypeSigned16
	}
	if scaleValue == 0 {
		return 0, t
	}
	return r.numerator / float64(scaleValue), t
}

func (r ScaleResolver) isException(scaleFormat string) bool {
	code, err := strconv.ParseInt(strings.TrimSpace(scaleFormat), 10, 64)
	if err != nil {
		return false
	}
	_, ok := r.exceptions[code]
	return ok
}
