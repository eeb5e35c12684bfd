package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const emptyValue = "empty"

// normalize dereferences pointers so *string and string compare alike.
func normalize(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return nil
}

// asList accepts slices only. Fixed-size arrays such as uuid.UUID are scalars.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

type numberKind int

const (
	signedNumber numberKind = iota
	unsignedNumber
	floatNumber
)

// number keeps integers exact so values above 2^53 never collapse into one float.
type number struct {
	kind numberKind
	i    int64
	u    uint64
	f    float64
}

func asNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{kind: signedNumber, i: int64(n)}, true
	case int8:
		return number{kind: signedNumber, i: int64(n)}, true
	case int16:
		return number{kind: signedNumber, i: int64(n)}, true
	case int32:
		return number{kind: signedNumber, i: int64(n)}, true
	case int64:
		return number{kind: signedNumber, i: n}, true
	case uint:
		return number{kind: unsignedNumber, u: uint64(n)}, true
	case uint8:
		return number{kind: unsignedNumber, u: uint64(n)}, true
	case uint16:
		return number{kind: unsignedNumber, u: uint64(n)}, true
	case uint32:
		return number{kind: unsignedNumber, u: uint64(n)}, true
	case uint64:
		return number{kind: unsignedNumber, u: n}, true
	case float32:
		return number{kind: floatNumber, f: float64(n)}, true
	case float64:
		return number{kind: floatNumber, f: n}, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return number{kind: signedNumber, i: i}, true
		}
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return number{kind: unsignedNumber, u: u}, true
		}
		f, err := n.Float64()
		return number{kind: floatNumber, f: f}, err == nil
	}
	return number{}, false
}

func (a number) equal(b number) bool {
	switch {
	case a.kind == signedNumber && b.kind == signedNumber:
		return a.i == b.i
	case a.kind == unsignedNumber && b.kind == unsignedNumber:
		return a.u == b.u
	case a.kind == signedNumber && b.kind == unsignedNumber:
		return a.i >= 0 && uint64(a.i) == b.u
	case a.kind == unsignedNumber && b.kind == signedNumber:
		return b.equal(a)
	case a.kind == floatNumber && b.kind == floatNumber:
		return a.f == b.f
	case a.kind == floatNumber:
		return b.equalFloat(a.f)
	default:
		return a.equalFloat(b.f)
	}
}

// equalFloat compares an integer with f without rounding the integer.
func (a number) equalFloat(f float64) bool {
	if f != math.Trunc(f) {
		return false
	}
	if a.kind == signedNumber {
		if f < -(1<<63) || f >= 1<<63 {
			return false
		}
		return int64(f) == a.i
	}
	if f < 0 || f >= 1<<64 {
		return false
	}
	return uint64(f) == a.u
}

// equalValues is deep equality over snapshot values. Numbers compare by value
// regardless of Go type, times by instant, lists element by element.
func equalValues(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if la, ok := asList(a); ok {
		lb, ok := asList(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !equalValues(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		return ok && na.equal(nb)
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if equalValues(item, v) {
			return true
		}
	}
	return false
}

// difference returns the items of a not present in b, in a's order.
func difference(a, b []any) []any {
	var out []any
	for _, item := range a {
		if !containsValue(b, item) {
			out = append(out, item)
		}
	}
	return out
}

// renderValue formats a value for descriptions. Null and empty values read "empty".
func renderValue(v any) string {
	v = normalize(v)
	if v == nil {
		return emptyValue
	}

	switch t := v.(type) {
	case string:
		if t == "" {
			return emptyValue
		}
		return t
	case time.Time:
		if t.IsZero() {
			return emptyValue
		}
		return t.Format(time.RFC3339)
	}

	if items, ok := asList(v); ok {
		if len(items) == 0 {
			return emptyValue
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = renderValue(item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
