package bindata

// In-place float transforms used as pre-compression filters for slowly
// varying axes.

// DeltaEncode replaces each value after the first with its difference from
// the previous value.
func DeltaEncode(values []float64) []float64 {
	if len(values) < 2 {
		return values
	}
	prev := values[0]
	for i := 1; i < len(values); i++ {
		cur := values[i]
		values[i] = cur - prev
		prev = cur
	}
	return values
}

// DeltaDecode inverts DeltaEncode.
func DeltaDecode(values []float64) []float64 {
	for i := 1; i < len(values); i++ {
		values[i] += values[i-1]
	}
	return values
}

// LinearPredictionEncode stores each value after the second as the residual
// from a two-point linear extrapolation.
func LinearPredictionEncode(values []float64) []float64 {
	if len(values) < 3 {
		return values
	}
	prev2, prev1 := values[0], values[1]
	for i := 2; i < len(values); i++ {
		cur := values[i]
		values[i] = cur - (2*prev1 - prev2)
		prev2, prev1 = prev1, cur
	}
	return values
}

// LinearPredictionDecode inverts LinearPredictionEncode.
func LinearPredictionDecode(values []float64) []float64 {
	if len(values) < 3 {
		return values
	}
	for i := 2; i < len(values); i++ {
		values[i] += 2*values[i-1] - values[i-2]
	}
	return values
}
