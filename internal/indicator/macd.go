package indicator

// MACDResult holds the three MACD columns, all aligned to the input series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates the MACD line (fast EWMA minus slow EWMA), its signal
// line (EWMA of the MACD line) and the histogram (line minus signal).
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	fastEMA := EWMA(prices, fast)
	slowEMA := EWMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EWMA(line, signal)

	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = line[i] - signalLine[i]
	}

	return MACDResult{
		Line:      line,
		Signal:    signalLine,
		Histogram: hist,
	}
}
