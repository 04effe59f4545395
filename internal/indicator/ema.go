package indicator

// EWMA calculates an exponentially weighted moving average over the full
// series, seeded with the first price. alpha = 2 / (span + 1).
// Returns a slice the same length as prices.
func EWMA(prices []float64, span int) []float64 {
	if len(prices) == 0 || span <= 0 {
		return []float64{}
	}

	alpha := 2.0 / float64(span+1)
	result := make([]float64, len(prices))
	result[0] = prices[0]

	for i := 1; i < len(prices); i++ {
		result[i] = alpha*prices[i] + (1-alpha)*result[i-1]
	}

	return result
}

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}
