package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMASeries returns the simple moving average aligned with values.
// Positions without a full window are nil.
func SMASeries(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	if window == 1 {
		for i := range values {
			v := values[i]
			out[i] = &v
		}
		return out
	}

	sma := talib.Sma(values, window)
	for i := window - 1; i < len(sma); i++ {
		if isNaN(sma[i]) {
			continue
		}
		v := sma[i]
		out[i] = &v
	}
	return out
}

func isNaN(f float64) bool {
	return math.IsNaN(f)
}
