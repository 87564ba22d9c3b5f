// Package calc holds the pure calculations used by the production and
// inventory services: area conversion, recipe scaling, stock status labels
// and quality grade averaging.
package calc

import (
	"math"
	"strings"
)

const sqFtPerSQM = 10.7639

var metersPerUnit = map[string]float64{
	"m":      1,
	"meter":  1,
	"meters": 1,
	"metre":  1,
	"metres": 1,
	"cm":     0.01,
	"mm":     0.001,
	"ft":     0.3048,
	"feet":   0.3048,
	"foot":   0.3048,
	"in":     0.0254,
	"inch":   0.0254,
	"inches": 0.0254,
	"yd":     0.9144,
	"yard":   0.9144,
	"yards":  0.9144,
}

// IsUsable reports whether v can take part in an area or ratio calculation.
func IsUsable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ToMeters converts a length to meters. Unknown units are treated as meters.
func ToMeters(value float64, unit string) float64 {
	factor, ok := metersPerUnit[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		factor = 1
	}
	return value * factor
}

// CalculateSQM returns the area in square meters, or 0 when either side is
// not a positive finite number.
func CalculateSQM(length, width float64, lengthUnit, widthUnit string) float64 {
	if !IsUsable(length) || !IsUsable(width) {
		return 0
	}
	return ToMeters(length, lengthUnit) * ToMeters(width, widthUnit)
}

func SQMToSqFt(sqm float64) float64 {
	return sqm * sqFtPerSQM
}

func SqFtToSQM(sqft float64) float64 {
	return sqft / sqFtPerSQM
}

// ProductRatio is how many child units one unit of the parent covers.
// The result may be NaN or Inf for bad input; check it with ValidRatio.
func ProductRatio(parentSQM, childSQM float64) float64 {
	return parentSQM / childSQM
}

func ValidRatio(r float64) bool {
	return IsUsable(r)
}

// AutoQuantity derives a per-SQM quantity for a product-type recipe
// material from the two products' areas. ok is false when no automatic
// value can be computed and the quantity has to be entered by hand.
func AutoQuantity(parentSQM, childSQM float64) (qty float64, ok bool) {
	if !IsUsable(parentSQM) || !IsUsable(childSQM) {
		return 0, false
	}
	ratio := ProductRatio(parentSQM, childSQM)
	if !ValidRatio(ratio) {
		return 0, false
	}
	// quantity per 1 SQM of parent = (1 / parentSQM) * ratio = 1 / childSQM
	return ratio / parentSQM, true
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
