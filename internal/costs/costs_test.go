package costs

import (
	"math"
	"testing"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		oddLot bool
		want   float64
	}{
		{"round lot above minimum", 100000, false, 142.5},
		{"round lot hits 20 floor", 10000, false, 20},
		{"round lot tiny value", 1, false, 20},
		{"odd lot above minimum", 100000, true, 142.5},
		{"odd lot hits 1 floor", 500, true, 1},
		{"zero value round lot", 0, false, 20},
		{"zero value odd lot", 0, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Commission(tt.value, tt.oddLot)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Commission(%v, %v) = %v, want %v", tt.value, tt.oddLot, got, tt.want)
			}
		})
	}
}

func TestCommissionIsMaxOfRateAndFloor(t *testing.T) {
	for _, v := range []float64{0, 1, 500, 7017.5, 14035.1, 100000, 2500000} {
		if got, want := Commission(v, true), math.Max(v*CommissionRate, 1); got != want {
			t.Errorf("odd lot Commission(%v) = %v, want %v", v, got, want)
		}
		if got, want := Commission(v, false), math.Max(v*CommissionRate, 20); got != want {
			t.Errorf("round lot Commission(%v) = %v, want %v", v, got, want)
		}
	}
}

func TestTax(t *testing.T) {
	if got := Tax(100000, false); math.Abs(got-300) > 1e-9 {
		t.Errorf("Tax(100000, false) = %v, want 300", got)
	}
	if got := Tax(100000, true); math.Abs(got-150) > 1e-9 {
		t.Errorf("Tax(100000, true) = %v, want 150", got)
	}
	if got := Tax(0, false); got != 0 {
		t.Errorf("Tax(0, false) = %v, want 0", got)
	}
}
