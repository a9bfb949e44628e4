package listview

import (
	"testing"
	"time"
)

type device struct {
	Name      string
	Status    string
	Price     int64
	CreatedAt time.Time
}

func deviceView(now time.Time) View[device] {
	return View[device]{
		Fields: map[string]func(device) any{
			"name":      func(d device) any { return d.Name },
			"status":    func(d device) any { return d.Status },
			"price":     func(d device) any { return d.Price },
			"createdAt": func(d device) any { return d.CreatedAt },
		},
		Now: func() time.Time { return now },
	}
}

func sampleDevices(now time.Time) []device {
	return []device{
		{Name: "iPhone", Status: "done", Price: 1500, CreatedAt: now.Add(-2 * time.Hour)},
		{Name: "Samsung", Status: "pending", Price: 900, CreatedAt: now.Add(-3 * 24 * time.Hour)},
		{Name: "Pixel", Status: "pending", Price: 1200, CreatedAt: now.Add(-20 * 24 * time.Hour)},
		{Name: "Nokia", Status: "done", Price: 300, CreatedAt: now.Add(-40 * 24 * time.Hour)},
	}
}

func TestFilterTextMatchesAnyField(t *testing.T) {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.Local)
	v := deviceView(now)
	records := sampleDevices(now)

	got := v.FilterText(records, "phone", []string{"name"})
	if len(got) != 1 || got[0].Name != "iPhone" {
		t.Fatalf("expected only iPhone, got %+v", got)
	}
	if got := v.FilterText(records, "", []string{"name"}); len(got) != len(records) {
		t.Fatalf("empty query should keep all records, got %d", len(got))
	}
	if got := v.FilterText(records, "phone", []string{"missing"}); len(got) != 0 {
		t.Fatalf("unknown field should never match, got %d", len(got))
	}
}

func TestFilterFieldAllPassesThrough(t *testing.T) {
	now := time.Now()
	v := deviceView(now)
	records := sampleDevices(now)

	if got := v.FilterField(records, "status", PassAll); len(got) != len(records) {
		t.Fatalf("'all' should pass everything, got %d", len(got))
	}
	got := v.FilterField(records, "status", "pending")
	if len(got) != 2 {
		t.Fatalf("expected 2 pending devices, got %d", len(got))
	}
}

func TestFilterDateBuckets(t *testing.T) {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.Local)
	v := deviceView(now)
	records := sampleDevices(now)

	today := v.FilterDate(records, "createdAt", RangeToday)
	if len(today) != 1 || today[0].Name != "iPhone" {
		t.Fatalf("expected only today's record, got %+v", today)
	}
	week := v.FilterDate(records, "createdAt", RangeWeek)
	if len(week) != 2 {
		t.Fatalf("expected 2 records in trailing week, got %d", len(week))
	}
	month := v.FilterDate(records, "createdAt", RangeMonth)
	if len(month) != 3 {
		t.Fatalf("expected 3 records in trailing 30 days, got %d", len(month))
	}
	all := v.FilterDate(records, "createdAt", RangeAll)
	if len(all) != len(records) {
		t.Fatalf("'all' should keep everything, got %d", len(all))
	}
	unknown := v.FilterDate(records, "createdAt", Range("fortnight"))
	if len(unknown) != len(records) {
		t.Fatalf("unknown bucket should pass through, got %d", len(unknown))
	}
}

func TestSortNumericAndString(t *testing.T) {
	now := time.Now()
	v := deviceView(now)
	records := sampleDevices(now)

	byPrice := v.Sort(records, "price", OrderAsc)
	if byPrice[0].Name != "Nokia" || byPrice[len(byPrice)-1].Name != "iPhone" {
		t.Fatalf("unexpected price ordering: %+v", byPrice)
	}
	byName := v.Sort(records, "name", OrderDesc)
	if byName[0].Name != "Samsung" {
		t.Fatalf("unexpected name ordering: %+v", byName)
	}
	// case must not influence ordering: "iPhone" sorts before "Nokia"
	byNameAsc := v.Sort(records, "name", OrderAsc)
	want := []string{"iPhone", "Nokia", "Pixel", "Samsung"}
	for i, name := range want {
		if byNameAsc[i].Name != name {
			t.Fatalf("unexpected ascending name ordering: %+v", byNameAsc)
		}
	}
	// unknown key is a no-op
	same := v.Sort(records, "bogus", OrderAsc)
	for i := range records {
		if same[i].Name != records[i].Name {
			t.Fatalf("unknown sort key should preserve order")
		}
	}
}

func TestSortIdempotent(t *testing.T) {
	now := time.Now()
	v := deviceView(now)
	records := sampleDevices(now)

	once := v.Sort(records, "status", OrderAsc)
	twice := v.Sort(once, "status", OrderAsc)
	for i := range once {
		if once[i].Name != twice[i].Name {
			t.Fatalf("sorting twice diverged at %d: %s vs %s", i, once[i].Name, twice[i].Name)
		}
	}
}

func TestApplyAllPassThroughIsPermutation(t *testing.T) {
	now := time.Now()
	v := deviceView(now)
	records := sampleDevices(now)

	got := v.Apply(records, Criteria{
		Query:      "",
		TextFields: []string{"name"},
		Filters:    []FieldFilter{{Field: "status", Value: PassAll}},
		DateField:  "createdAt",
		DateRange:  RangeAll,
		SortKey:    "name",
		SortOrder:  OrderAsc,
	})
	if len(got) != len(records) {
		t.Fatalf("pass-through criteria dropped records: %d of %d", len(got), len(records))
	}
	seen := map[string]int{}
	for _, d := range records {
		seen[d.Name]++
	}
	for _, d := range got {
		seen[d.Name]--
	}
	for name, n := range seen {
		if n != 0 {
			t.Fatalf("membership changed for %s", name)
		}
	}
}

func TestApplyComposition(t *testing.T) {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.Local)
	v := deviceView(now)
	records := sampleDevices(now)

	got := v.Apply(records, Criteria{
		Query:      "e",
		TextFields: []string{"name"},
		Filters:    []FieldFilter{{Field: "status", Value: "pending"}},
		DateField:  "createdAt",
		DateRange:  RangeMonth,
		SortKey:    "price",
		SortOrder:  OrderDesc,
	})
	if len(got) != 1 || got[0].Name != "Pixel" {
		t.Fatalf("expected only Pixel, got %+v", got)
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	now := time.Now()
	v := deviceView(now)
	records := sampleDevices(now)
	original := make([]string, len(records))
	for i, d := range records {
		original[i] = d.Name
	}
	_ = v.Apply(records, Criteria{SortKey: "name", SortOrder: OrderDesc})
	for i, d := range records {
		if d.Name != original[i] {
			t.Fatalf("source collection mutated at %d", i)
		}
	}
}
