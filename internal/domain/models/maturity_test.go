package models

import "testing"

func TestMaturityMonths(t *testing.T) {
	tests := []struct {
		maturity Maturity
		want     int
	}{
		{Maturity1M, 1},
		{Maturity2M, 2},
		{Maturity3M, 3},
		{Maturity6M, 6},
		{Maturity1Y, 12},
		{Maturity2Y, 24},
		{Maturity10Y, 120},
		{Maturity30Y, 360},
		{Maturity("banana"), 0},
		{Maturity(""), 0},
	}
	for _, tt := range tests {
		if got := tt.maturity.Months(); got != tt.want {
			t.Errorf("%q.Months() = %d, want %d", tt.maturity, got, tt.want)
		}
	}
}

func TestSortByMaturity(t *testing.T) {
	rates := []RateObservation{
		{Maturity: Maturity10Y, Months: 120},
		{Maturity: Maturity1M, Months: 1},
		{Maturity: Maturity2Y, Months: 24},
		{Maturity: Maturity6M, Months: 6},
	}
	SortByMaturity(rates)

	want := []Maturity{Maturity1M, Maturity6M, Maturity2Y, Maturity10Y}
	for i, m := range want {
		if rates[i].Maturity != m {
			t.Fatalf("rates[%d] = %s, want %s", i, rates[i].Maturity, m)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Maturity10Y.Known() {
		t.Error("10Y should be known")
	}
	if Maturity("4M").Known() {
		t.Error("4M should not be known")
	}
}
