// Package numeric provides tolerant numeric coercion for values arriving
// from the data source, which mixes JSON numbers, fixed-point integer
// strings and nulls in the same fields.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ratioScale is the 1e18 fixed-point denominator used by the protocol for
// ratio fields such as LLTV.
const ratioScale = 18

// ratioFractionDigits bounds the precision kept when converting a scaled
// integer string; six fractional digits are enough for any ratio in [0,1].
const ratioFractionDigits = 6

// ToFinite coerces an arbitrary JSON-decoded value to a float64. Non-finite
// and unparseable inputs yield 0 so NaN never propagates downstream.
func ToFinite(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseRatio interprets a ratio that may arrive as a plain number, a
// numeric string, or a 1e18-scaled integer string. Scaled integer strings
// are converted with exact fixed-point arithmetic truncated to six
// fractional digits; float division would lose precision at these
// magnitudes. Returns nil only for unparseable input.
func ParseRatio(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return parseRatioString(v)
	case json.Number:
		return parseRatioString(v.String())
	default:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) {
			return nil
		}
		return ptr(descale(f))
	}
}

func parseRatioString(s string) *float64 {
	if s == "0" {
		return ptr(0)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}

	if d.IsInteger() {
		// Scaled integer path: shift the decimal point 18 places and
		// truncate, keeping the conversion exact.
		f, _ := d.Shift(-ratioScale).Truncate(ratioFractionDigits).Float64()
		return ptr(f)
	}

	f, _ := d.Float64()
	if math.IsNaN(f) {
		return nil
	}
	return ptr(descale(f))
}

// descale maps already-numeric inputs: values above 1 are assumed to be
// 1e18-scaled, values in [0,1] are taken as ratios directly.
func descale(f float64) float64 {
	if f > 1 {
		return f / 1e18
	}
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	default:
		return 0, false
	}
}

func ptr(f float64) *float64 {
	return &f
}
