package recurrence

import (
	"fmt"
	"testing"
)

func TestSortEquipmentByDueDate(t *testing.T) {
	records := []Equipment{
		recordDue(t, "c", "2024-05-01"),
		recordDue(t, "none", ""),
		recordDue(t, "a", "2024-03-01"),
		recordDue(t, "b", "2024-04-01"),
	}

	asc := SortEquipment(records, SortOptions{By: SortByDueDate})
	if fmt.Sprint(ids(asc)) != "[a b c none]" {
		t.Fatalf("ascending = %v", ids(asc))
	}

	desc := SortEquipment(records, SortOptions{By: SortByDueDate, Descending: true})
	if fmt.Sprint(ids(desc)) != "[c b a none]" {
		t.Fatalf("descending = %v", ids(desc))
	}

	if records[0].ID != "c" {
		t.Fatalf("SortEquipment() mutated input")
	}
}

func TestSortEquipmentByName(t *testing.T) {
	records := []Equipment{
		{ID: "2", Name: "pump"},
		{ID: "1", Name: "Boiler"},
		{ID: "3", Name: "boiler"},
	}
	got := SortEquipment(records, SortOptions{By: SortByName})
	if fmt.Sprint(ids(got)) != "[1 3 2]" {
		t.Fatalf("by name = %v", ids(got))
	}
}

func TestParseSortKey(t *testing.T) {
	testCases := map[string]SortKey{
		"":         SortByDueDate,
		"due":      SortByDueDate,
		"due_date": SortByDueDate,
		"NAME":     SortByName,
	}
	for raw, want := range testCases {
		got, err := ParseSortKey(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSortKey(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseSortKey("site"); err == nil {
		t.Fatalf("ParseSortKey(site) expected error")
	}
}

func TestFilterEquipment(t *testing.T) {
	records := []Equipment{
		{ID: "1", ClientID: "c1", SiteID: "s1", TypeID: "t1", Active: true},
		{ID: "2", ClientID: "c1", SiteID: "s2", Active: true},
		{ID: "3", ClientID: "c2", SiteID: "s3", Active: true},
		{ID: "4", ClientID: "c1", SiteID: "s1", Active: false},
	}

	testCases := []struct {
		name   string
		filter Filter
		want   string
	}{
		{name: "inactive included by default", filter: Filter{}, want: "[1 2 3 4]"},
		{name: "client", filter: Filter{ClientID: "c1"}, want: "[1 2 4]"},
		{name: "client active only", filter: Filter{ClientID: "c1", ExcludeInactive: true}, want: "[1 2]"},
		{name: "site", filter: Filter{SiteID: "s1"}, want: "[1 4]"},
		{name: "type", filter: Filter{TypeID: "t1"}, want: "[1]"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := FilterEquipment(records, testCase.filter)
			if fmt.Sprint(ids(got)) != testCase.want {
				t.Fatalf("FilterEquipment() = %v, want %s", ids(got), testCase.want)
			}
		})
	}
}
