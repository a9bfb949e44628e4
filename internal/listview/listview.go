// Package listview implements the declarative filter-and-sort pipeline that
// drives list and grid views: free-text matching, categorical filters, rolling
// date-range buckets, and stable key-based sorting over in-memory record
// collections.
package listview

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// PassAll is the categorical filter value meaning "no constraint".
const PassAll = "all"

// Range identifies a creation-time bucket. Week and month are rolling windows
// measured from the current instant, not calendar-aligned; today is aligned to
// local midnight. The windows intentionally overlap rather than nest.
type Range string

const (
	RangeAll   Range = "all"
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// FieldFilter constrains one field to one accepted value.
type FieldFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Criteria bundles every predicate and the sort directive applied to a record
// collection. Criteria are pure view state; applying them never mutates the
// source collection.
type Criteria struct {
	Query      string        `json:"query"`
	TextFields []string      `json:"textFields"`
	Filters    []FieldFilter `json:"filters"`
	DateField  string        `json:"dateField"`
	DateRange  Range         `json:"dateRange"`
	SortKey    string        `json:"sortKey"`
	SortOrder  Order         `json:"sortOrder"`
}

// View evaluates criteria against records of type T. Fields maps a field name
// to its accessor; names absent from the map behave as missing values. Now is
// overridable for tests and defaults to time.Now.
type View[T any] struct {
	Fields map[string]func(T) any
	Now    func() time.Time
}

func (v View[T]) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v View[T]) field(record T, name string) (any, bool) {
	get, ok := v.Fields[name]
	if !ok || get == nil {
		return nil, false
	}
	val := get(record)
	if val == nil {
		return nil, false
	}
	return val, true
}

// FilterText keeps records whose lower-cased value of any listed field
// contains the lower-cased query. An empty query keeps everything; missing
// fields never match.
func (v View[T]) FilterText(records []T, query string, fields []string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		for _, name := range fields {
			val, ok := v.field(record, name)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(stringify(val)), query) {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

// FilterField keeps records whose field equals the accepted value. The value
// "all" passes everything through.
func (v View[T]) FilterField(records []T, field, value string) []T {
	if value == PassAll {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		val, ok := v.field(record, field)
		if !ok {
			continue
		}
		if stringify(val) == value {
			out = append(out, record)
		}
	}
	return out
}

// FilterDate keeps records whose timestamp field falls inside the bucket.
// Records without a usable timestamp are dropped for any bucket other than
// "all". Unrecognised buckets pass everything through.
func (v View[T]) FilterDate(records []T, field string, bucket Range) []T {
	if bucket == RangeAll || bucket == "" {
		return slices.Clone(records)
	}
	now := v.now()
	var cutoff time.Time
	switch bucket {
	case RangeToday:
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case RangeWeek:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case RangeMonth:
		cutoff = now.Add(-30 * 24 * time.Hour)
	default:
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		val, ok := v.field(record, field)
		if !ok {
			continue
		}
		ts, ok := val.(time.Time)
		if !ok {
			continue
		}
		if !ts.Before(cutoff) {
			out = append(out, record)
		}
	}
	return out
}

// Sort returns a freshly ordered copy of records by the given key. Numeric and
// time values compare numerically, everything else lexicographically. The sort
// is stable, so equal keys keep their relative input order. An unknown key is
// a no-op; an unrecognised order sorts ascending.
func (v View[T]) Sort(records []T, key string, order Order) []T {
	out := slices.Clone(records)
	if _, ok := v.Fields[key]; !ok {
		return out
	}
	desc := order == OrderDesc
	slices.SortStableFunc(out, func(a, b T) int {
		av, aok := v.field(a, key)
		bv, bok := v.field(b, key)
		c := compareValues(av, aok, bv, bok)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Apply evaluates the full pipeline: text filter, categorical filters in
// declaration order, date-range filter, then sort. The result is a new slice.
func (v View[T]) Apply(records []T, c Criteria) []T {
	out := v.FilterText(records, c.Query, c.TextFields)
	for _, f := range c.Filters {
		out = v.FilterField(out, f.Field, f.Value)
	}
	if c.DateField != "" {
		out = v.FilterDate(out, c.DateField, c.DateRange)
	}
	if c.SortKey != "" {
		out = v.Sort(out, c.SortKey, c.SortOrder)
	}
	return out
}

func compareValues(a any, aok bool, b any, bok bool) int {
	if !aok && !bok {
		return 0
	}
	if !aok {
		return -1
	}
	if !bok {
		return 1
	}
	an, aNum := numeric(a)
	bn, bNum := numeric(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	as, bs := stringify(a), stringify(b)
	// Strings order case-insensitively, matching how the list screens sort
	// names. Equal folded values fall back to the raw compare for a total
	// order.
	if c := strings.Compare(strings.ToLower(as), strings.ToLower(bs)); c != 0 {
		return c
	}
	return strings.Compare(as, bs)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case time.Time:
		return float64(n.UnixNano()), true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
