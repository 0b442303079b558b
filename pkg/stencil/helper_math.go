package stencil

import (
	"math"
	"strconv"
)

// InfinitySentinel is the result of dividing by zero.
const InfinitySentinel = "Infinity"

// formatNumber renders integral results without a decimal point.
func formatNumber(n float64) string {
	if math.IsInf(n, 0) {
		if n < 0 {
			return "-" + InfinitySentinel
		}
		return InfinitySentinel
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// maxDecimalPlaces bounds the places argument of the rounding and number
// formatting helpers; float64 carries no more significant decimals.
const maxDecimalPlaces = 15

func clampPlaces(places int) int {
	return min(max(places, 0), maxDecimalPlaces)
}

// roundTo rounds half away from zero to places decimals and formats with exactly
// that many digits.
func roundTo(n float64, places int) string {
	places = clampPlaces(places)
	factor := math.Pow(10, float64(places))
	rounded := math.Round(n*factor) / factor
	if math.IsInf(rounded, 0) || math.IsNaN(rounded) {
		// n*factor overflowed; n has no fractional digits at that magnitude.
		rounded = n
	}
	return strconv.FormatFloat(rounded, 'f', places, 64)
}

// binaryMath registers a two-operand numeric helper. Non-numeric operands yield
// empty output.
func binaryMath(r *HelperRegistry, name string, op func(a, b float64) (float64, bool)) {
	r.mustRegister(NewSimpleHelper(name, 2, 2, func(args []string, ctx *Context) string {
		a, ok := argNumber(args[0], ctx)
		if !ok {
			return ""
		}
		b, ok := argNumber(args[1], ctx)
		if !ok {
			return ""
		}
		result, ok := op(a, b)
		if !ok {
			return InfinitySentinel
		}
		return formatNumber(result)
	}))
}

func registerMathHelpers(r *HelperRegistry) {
	binaryMath(r, "add", func(a, b float64) (float64, bool) { return a + b, true })
	binaryMath(r, "subtract", func(a, b float64) (float64, bool) { return a - b, true })
	binaryMath(r, "multiply", func(a, b float64) (float64, bool) { return a * b, true })
	binaryMath(r, "divide", func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	})

	// round value [places]
	r.mustRegister(NewSimpleHelper("round", 1, 2, func(args []string, ctx *Context) string {
		n, ok := argNumber(args[0], ctx)
		if !ok {
			return ""
		}
		return roundTo(n, argInt(args, 1, ctx, 0))
	}))

	// sum list - adds the numeric elements, skipping anything else
	r.mustRegister(NewSimpleHelper("sum", 1, 1, func(args []string, ctx *Context) string {
		value, ok := Resolve(args[0], ctx)
		if !ok {
			return ""
		}
		items, ok := asList(value)
		if !ok {
			return ""
		}
		var total float64
		for _, item := range items {
			if isString(item) {
				continue
			}
			if n, ok := toNumber(item); ok {
				total += n
			}
		}
		return formatNumber(total)
	}))
}
