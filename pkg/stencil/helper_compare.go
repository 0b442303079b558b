package stencil

import "strconv"

// compareValues resolves both operands. Numbers, and strings holding numbers,
// compare numerically; anything else is equal only when both values resolve to
// the same value. Unresolved operands are never equal.
func compareValues(left, right string, ctx *Context) (cmp int, numeric, equal bool) {
	a, aok := Resolve(left, ctx)
	b, bok := Resolve(right, ctx)
	if !aok || !bok {
		return 0, false, false
	}

	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			switch {
			case fa < fb:
				return -1, true, false
			case fa > fb:
				return 1, true, false
			default:
				return 0, true, true
			}
		}
	}

	return 0, false, valuesEqual(a, b) && sameKind(a, b)
}

// sameKind keeps "1" == true and similar textual coincidences from comparing equal.
func sameKind(a, b interface{}) bool {
	switch a.(type) {
	case string:
		return isString(b)
	case bool:
		_, ok := b.(bool)
		return ok
	}
	if _, ok := asList(a); ok {
		_, ok := asList(b)
		return ok
	}
	if _, ok := asMap(a); ok {
		_, ok := asMap(b)
		return ok
	}
	return true
}

func registerComparisonHelpers(r *HelperRegistry) {
	register := func(name string, decide func(cmp int, numeric, equal bool) bool) {
		r.mustRegister(NewSimpleHelper(name, 2, 2, func(args []string, ctx *Context) string {
			return strconv.FormatBool(decide(compareValues(args[0], args[1], ctx)))
		}))
	}

	register("eq", func(_ int, _, equal bool) bool { return equal })
	register("ne", func(_ int, _, equal bool) bool { return !equal })
	register("gt", func(cmp int, numeric, _ bool) bool { return numeric && cmp > 0 })
	register("lt", func(cmp int, numeric, _ bool) bool { return numeric && cmp < 0 })
	register("gte", func(cmp int, numeric, _ bool) bool { return numeric && cmp >= 0 })
	register("lte", func(cmp int, numeric, _ bool) bool { return numeric && cmp <= 0 })
}
