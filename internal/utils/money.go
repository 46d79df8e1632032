package utils

import "github.com/shopspring/decimal"

// Fixed decimal precision used by every report rendering.
const (
	MilesPrecision    int32 = 1
	GallonsPrecision  int32 = 3
	CurrencyPrecision int32 = 2
	MPGPrecision      int32 = 2
)

// FormatFixed renders v with exactly places decimals, rounding half away
// from zero on the decimal value rather than the binary float.
func FormatFixed(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	if s == "-"+decimal.Zero.StringFixed(places) {
		return decimal.Zero.StringFixed(places)
	}
	return s
}

func FormatMiles(v float64) string { return FormatFixed(v, MilesPrecision) }

func FormatGallons(v float64) string { return FormatFixed(v, GallonsPrecision) }

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(v float64) string { return FormatFixed(v, CurrencyPrecision) }

func FormatMPG(v float64) string { return FormatFixed(v, MPGPrecision) }
