package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, c := range ValidCurrencies {
		if !IsValid(c) {
			t.Errorf("IsValid(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"USD", "jpy", ""} {
		if IsValid(c) {
			t.Errorf("IsValid(%q) = true, want false", c)
		}
	}
}

func TestSymbol(t *testing.T) {
	tests := []struct {
		currency string
		want     string
	}{
		{USD, "$"},
		{EUR, "€"},
		{GBP, "£"},
		{INR, "₹"},
		{"xyz", "xyz"},
	}
	for _, tt := range tests {
		if got := Symbol(tt.currency); got != tt.want {
			t.Errorf("Symbol(%q) = %q, want %q", tt.currency, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got, want := FormatPrice(66, USD), "$66.00"; got != want {
		t.Errorf("FormatPrice = %q, want %q", got, want)
	}
	if got, want := FormatPrice(49.999, EUR), "€50.00"; got != want {
		t.Errorf("FormatPrice = %q, want %q", got, want)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{32.199999999999996, 32.2},
		{66.00000000000001, 66},
		{1.005, 1.0}, // 1.005 is stored just below 1.005
		{-2.675, -2.67},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := Round2(math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("Round2(+Inf) = %v, want +Inf", got)
	}
	if got := Round2(math.NaN()); !math.IsNaN(got) {
		t.Errorf("Round2(NaN) = %v, want NaN", got)
	}
}

func TestRound0(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{42.2, 42},
		{42.5, 43},
		{0.1, 0},
		{-1.5, -2},
	}
	for _, tt := range tests {
		if got := Round0(tt.in); got != tt.want {
			t.Errorf("Round0(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
