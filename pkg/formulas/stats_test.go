package formulas

import (
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{
			name:     "empty series",
			values:   []float64{},
			expected: []float64{},
		},
		{
			name:     "single value",
			values:   []float64{100},
			expected: []float64{},
		},
		{
			name:     "rising series",
			values:   []float64{100, 110, 121},
			expected: []float64{0.10, 0.10},
		},
		{
			name:     "falling series",
			values:   []float64{100, 90},
			expected: []float64{-0.10},
		},
		{
			name:     "zero predecessor yields zero return",
			values:   []float64{0, 100},
			expected: []float64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.values)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d returns, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if !almostEqual(got[i], tt.expected[i], 1e-9) {
					t.Errorf("returns[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	if got := AnnualizedVolatility(nil); got != 0 {
		t.Errorf("empty returns: got %v, want 0", got)
	}

	// Constant returns have zero variance
	if got := AnnualizedVolatility([]float64{0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("flat returns: got %v, want 0", got)
	}

	returns := []float64{0.01, -0.01, 0.02, -0.02}
	expected := StdDev(returns) * math.Sqrt(365)
	if got := AnnualizedVolatility(returns); !almostEqual(got, expected, 1e-12) {
		t.Errorf("got %v, want %v", got, expected)
	}
}

func TestWinRate(t *testing.T) {
	if got := WinRate(nil); got != nil {
		t.Errorf("empty returns: got %v, want nil", *got)
	}

	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{"all wins", []float64{0.01, 0.02, 0.03}, 1.0},
		{"all losses", []float64{-0.01, -0.02}, 0.0},
		{"mixed", []float64{0.01, -0.01, 0.02, -0.02}, 0.5},
		{"zero is not a win", []float64{0, 0.01}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WinRate(tt.returns)
			if got == nil {
				t.Fatal("got nil")
			}
			if !almostEqual(*got, tt.expected, 1e-12) {
				t.Errorf("got %v, want %v", *got, tt.expected)
			}
		})
	}
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	if got := Correlation(x, y); !almostEqual(got, 1.0, 1e-9) {
		t.Errorf("perfectly correlated: got %v, want 1", got)
	}

	inverted := []float64{10, 8, 6, 4, 2}
	if got := Correlation(x, inverted); !almostEqual(got, -1.0, 1e-9) {
		t.Errorf("perfectly anti-correlated: got %v, want -1", got)
	}

	if got := Correlation(x, []float64{1, 2}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
}

func TestCalculateSharpeRatio(t *testing.T) {
	if got := CalculateSharpeRatio([]float64{0.01}, 0.02, 365); got != nil {
		t.Errorf("single return: got %v, want nil", *got)
	}
	if got := CalculateSharpeRatio([]float64{0.01, 0.01, 0.01}, 0.02, 365); got != nil {
		t.Errorf("flat returns: got %v, want nil", *got)
	}

	returns := []float64{0.02, -0.01, 0.015, 0.005, -0.005}
	got := CalculateSharpeRatio(returns, 0.02, 365)
	if got == nil {
		t.Fatal("got nil")
	}

	expected := (Mean(returns) - 0.02/365) / StdDev(returns) * math.Sqrt(365)
	if !almostEqual(*got, expected, 1e-9) {
		t.Errorf("got %v, want %v", *got, expected)
	}
}

func TestCalculateSortinoRatio(t *testing.T) {
	// No downside returns: ratio is undefined
	if got := CalculateSortinoRatio([]float64{0.01, 0.02, 0.03}, 0.02, 0, 365); got != nil {
		t.Errorf("no downside: got %v, want nil", *got)
	}

	returns := []float64{0.02, -0.01, 0.015, -0.02, 0.005}
	got := CalculateSortinoRatio(returns, 0.02, 0, 365)
	if got == nil {
		t.Fatal("got nil")
	}
	if *got <= 0 {
		t.Errorf("positive-mean series should have positive sortino, got %v", *got)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	if got := CalculateMaxDrawdown([]float64{100}); got != nil {
		t.Errorf("single value: got %v, want nil", *got)
	}

	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single dip", []float64{100, 80, 120}, 0.20},
		{"deepest dip wins", []float64{100, 90, 150, 75, 140}, 0.50},
		{"ends at trough", []float64{100, 120, 60}, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMaxDrawdown(tt.values)
			if got == nil {
				t.Fatal("got nil")
			}
			if !almostEqual(*got, tt.expected, 1e-9) {
				t.Errorf("got %v, want %v", *got, tt.expected)
			}
		})
	}
}

func TestCalculateDrawdownMetrics(t *testing.T) {
	metrics := CalculateDrawdownMetrics([]float64{100, 150, 75, 120})
	if metrics == nil {
		t.Fatal("got nil")
	}

	if !almostEqual(metrics.MaxDrawdown, 0.50, 1e-9) {
		t.Errorf("MaxDrawdown = %v, want 0.50", metrics.MaxDrawdown)
	}
	if !almostEqual(metrics.CurrentDrawdown, 0.20, 1e-9) {
		t.Errorf("CurrentDrawdown = %v, want 0.20", metrics.CurrentDrawdown)
	}
	if metrics.PeakValue != 150 {
		t.Errorf("PeakValue = %v, want 150", metrics.PeakValue)
	}
	if metrics.CurrentValue != 120 {
		t.Errorf("CurrentValue = %v, want 120", metrics.CurrentValue)
	}
}

func TestCalculateMomentum(t *testing.T) {
	values := []float64{100, 105, 110, 121}

	got := CalculateMomentum(values, 2)
	if got == nil {
		t.Fatal("got nil")
	}
	// (121 - 105) / 105
	if !almostEqual(*got, 16.0/105.0, 1e-9) {
		t.Errorf("got %v, want %v", *got, 16.0/105.0)
	}

	if got := CalculateMomentum(values, 10); got != nil {
		t.Errorf("insufficient history: got %v, want nil", *got)
	}
}

func TestCalculateRSI(t *testing.T) {
	if got := CalculateRSI([]float64{1, 2, 3}, 14); got != nil {
		t.Errorf("insufficient data: got %v, want nil", *got)
	}

	// Strictly rising series saturates RSI near 100
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	got := CalculateRSI(values, 14)
	if got == nil {
		t.Fatal("got nil")
	}
	if *got < 99 || *got > 100 {
		t.Errorf("rising series RSI = %v, want near 100", *got)
	}
}
