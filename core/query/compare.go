package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s, used by every
// case-insensitive comparison. A cases.Caser keeps state, so one is created
// per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ToFloat64 converts a value of any Go numeric type to a float64. It returns
// the converted value and whether the conversion was possible. Strings are not
// coerced: a textual field compares textually even when it looks like a number.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// kind ranks values of different types so that Compare is a total order.
type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindTime
	kindString
	kindOther
)

func kindOf(v any) kind {
	switch t := v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case string:
		return kindString
	case time.Time:
		return kindTime
	case *time.Time:
		if t == nil {
			return kindNull
		}
		return kindTime
	}
	if _, ok := ToFloat64(v); ok {
		return kindNumber
	}
	return kindOther
}

// Compare orders two scalar values and returns -1, 0 or 1. Numbers compare
// numerically with NaN below every other number, strings case-insensitively,
// times chronologically and bools with false before true. Values of different
// kinds order by kind: nil < bool < number < time < string < anything else.
func Compare(a, b any) int {
	return CompareKeys(KeyOf(a), KeyOf(b))
}

// Key is a value prepared for repeated comparison: numbers are converted and
// strings case-folded once, so sorting n records folds n strings rather than
// two per comparison.
type Key struct {
	kind kind
	num  float64
	text string
	at   time.Time
	flag bool
}

// KeyOf prepares v for CompareKeys.
func KeyOf(v any) Key {
	k := Key{kind: kindOf(v)}
	switch k.kind {
	case kindBool:
		k.flag = v.(bool)
	case kindNumber:
		k.num, _ = ToFloat64(v)
	case kindTime:
		k.at = asTime(v)
	case kindString:
		k.text = Fold(v.(string))
	case kindOther:
		k.text = Format(v)
	}
	return k
}

// CompareKeys orders two prepared keys exactly as Compare orders the values
// they were prepared from.
func CompareKeys(a, b Key) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}

	switch a.kind {
	case kindNull:
		return 0
	case kindBool:
		switch {
		case a.flag == b.flag:
			return 0
		case !a.flag:
			return -1
		default:
			return 1
		}
	case kindNumber:
		return compareNumbers(a.num, b.num)
	case kindTime:
		return a.at.Compare(b.at)
	default:
		return strings.Compare(a.text, b.text)
	}
}

// compareNumbers is a total order on float64: NaN equals NaN and sorts below
// every other number.
func compareNumbers(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two scalar values are equal under Compare, except that
// strings must match exactly.
func Equal(a, b any) bool {
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return kindOf(a) == kindOf(b) && Compare(a, b) == 0
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

// Format renders a scalar value as text: strings as-is, numbers in their
// shortest decimal form, bools as true/false and times as RFC 3339. Nil
// renders as the empty string.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	}
	if f, ok := ToFloat64(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
