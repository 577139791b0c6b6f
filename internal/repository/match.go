package repository

import (
	"cmp"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OrderParam is the query parameter the HTTP contract uses for the sort key.
const OrderParam = "order"

// Where is an exact-match predicate keyed by JSON field name. Values must be
// strings, numbers, booleans or nil; a nil value matches a field that is
// absent or null. Records whose field holds an array or object never match.
type Where map[string]any

// Text is a predicate value that arrived as untyped text (a query-string
// parameter). It matches a scalar field whose canonical text form is equal,
// so {"read": Text("false")} matches a record with read=false.
type Text string

// WhereFromQuery builds a predicate from query parameters, skipping the
// order parameter. Only the first value of a repeated key is used.
func WhereFromQuery(q url.Values) Where {
	w := make(Where, len(q))
	for k, vs := range q {
		if k == OrderParam || len(vs) == 0 {
			continue
		}
		w[k] = Text(vs[0])
	}
	return w
}

// Query encodes the predicate as query parameters using each value's
// canonical text form. Non-scalar values are dropped.
func (w Where) Query() url.Values {
	q := url.Values{}
	for k, v := range w {
		if s, ok := CanonicalText(normalize(v)); ok {
			q.Set(k, s)
		}
	}
	return q
}

// CanonicalText renders a decoded JSON scalar the way it would appear in a
// query string. It reports false for null, arrays and objects.
func CanonicalText(v any) (string, bool) {
	switch x := v.(type) {
	case Text:
		return string(x), true
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Match reports whether rec satisfies every key of where. rec is a record
// decoded into map[string]any (numbers as float64).
func Match(rec map[string]any, where Where) bool {
	for k, want := range where {
		got, present := rec[k]
		switch w := want.(type) {
		case nil:
			if present && got != nil {
				return false
			}
		case Text:
			s, ok := CanonicalText(got)
			if !present || !ok || s != string(w) {
				return false
			}
		default:
			n := normalize(want)
			if !isScalar(n) || !present || got != n {
				return false
			}
		}
	}
	return true
}

// normalize maps Go scalars onto the types encoding/json decodes into, so an
// int predicate compares equal to a float64 field.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, Text:
		return x
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64:
		return true
	}
	return false
}

// ParseOrder splits a sort key into the field name and direction.
func ParseOrder(order string) (field string, desc bool) {
	if strings.HasPrefix(order, "-") {
		return order[1:], true
	}
	return order, false
}

// Sort orders items in place by the field named in order. The sort is
// stable; records where the field is null or missing go last in both
// directions. An empty order leaves items untouched.
func Sort[E any](items []E, order string, fields func(E) map[string]any) {
	field, desc := ParseOrder(order)
	if field == "" {
		return
	}
	slices.SortStableFunc(items, func(a, b E) int {
		av, bv := fields(a)[field], fields(b)[field]
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		c := compareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return compareStrings(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(typeRank(a), typeRank(b))
}

// compareStrings compares timestamps chronologically so that values with and
// without fractional seconds order correctly; everything else is compared
// bytewise.
func compareStrings(a, b string) int {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

func typeRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}
