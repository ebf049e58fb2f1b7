package models

import (
	"sort"
	"strconv"
	"strings"
)

// Maturity is the term-to-maturity label of a fixed income instrument,
// e.g. "3M" or "10Y".
type Maturity string

const (
	Maturity1M  Maturity = "1M"
	Maturity2M  Maturity = "2M"
	Maturity3M  Maturity = "3M"
	Maturity6M  Maturity = "6M"
	Maturity1Y  Maturity = "1Y"
	Maturity2Y  Maturity = "2Y"
	Maturity3Y  Maturity = "3Y"
	Maturity5Y  Maturity = "5Y"
	Maturity7Y  Maturity = "7Y"
	Maturity10Y Maturity = "10Y"
	Maturity20Y Maturity = "20Y"
	Maturity30Y Maturity = "30Y"
)

var curveMaturities = map[Maturity]bool{
	Maturity1M: true, Maturity2M: true, Maturity3M: true, Maturity6M: true,
	Maturity1Y: true, Maturity2Y: true, Maturity3Y: true, Maturity5Y: true,
	Maturity7Y: true, Maturity10Y: true, Maturity20Y: true, Maturity30Y: true,
}

// Known reports whether the label belongs to the tracked maturity set.
// Providers expose extra tenors (4-month bills, 1.5-month bills) that the
// curve does not carry.
func (m Maturity) Known() bool {
	return curveMaturities[m]
}

// Months converts the maturity label to months for ordering. The numeric
// prefix is multiplied by 12 for year-denominated labels. Unknown labels
// yield 0 and sort first.
func (m Maturity) Months() int {
	s := string(m)
	if s == "" {
		return 0
	}
	unit := s[len(s)-1:]
	value, err := strconv.Atoi(strings.TrimSuffix(s, unit))
	if err != nil {
		return 0
	}
	switch unit {
	case "M":
		return value
	case "Y":
		return value * 12
	default:
		return 0
	}
}

// SortByMaturity orders observations ascending by maturity-in-months.
// Maturities are unique within one curve, so no tie-break is needed.
func SortByMaturity(rates []RateObservation) {
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].Maturity.Months() < rates[j].Maturity.Months()
	})
}
