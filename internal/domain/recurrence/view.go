package recurrence

import (
	"fmt"
	"sort"
	"strings"
)

type SortKey string

const (
	SortByName    SortKey = "name"
	SortByDueDate SortKey = "due_date"
)

// SortOptions is the per-view ordering applied after classification.
type SortOptions struct {
	By         SortKey
	Descending bool
}

func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortByDueDate, "due":
		return SortByDueDate, nil
	case SortByName:
		return SortByName, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, raw)
	}
}

// SortEquipment returns a sorted copy. Unscheduled records sort last in both
// directions when ordering by due date; ties fall back to id.
func SortEquipment(records []Equipment, opts SortOptions) []Equipment {
	out := make([]Equipment, len(records))
	copy(out, records)

	by := opts.By
	if by == "" {
		by = SortByDueDate
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if by == SortByDueDate {
			aZero, bZero := a.DueDate.IsZero(), b.DueDate.IsZero()
			if aZero != bZero {
				return bZero
			}
			if !aZero && a.DueDate != b.DueDate {
				if opts.Descending {
					return a.DueDate.After(b.DueDate)
				}
				return a.DueDate.Before(b.DueDate)
			}
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			if opts.Descending {
				return an > bn
			}
			return an < bn
		}
		return a.ID < b.ID
	})
	return out
}

// Filter narrows a record set for one view. Empty ids match everything.
// Inactive records stay in every view unless ExcludeInactive is set.
type Filter struct {
	ClientID        string
	SiteID          string
	TypeID          string
	ExcludeInactive bool
}

func (f Filter) Match(eq Equipment) bool {
	if f.ClientID != "" && eq.ClientID != f.ClientID {
		return false
	}
	if f.SiteID != "" && eq.SiteID != f.SiteID {
		return false
	}
	if f.TypeID != "" && eq.TypeID != f.TypeID {
		return false
	}
	if f.ExcludeInactive && !eq.Active {
		return false
	}
	return true
}

func FilterEquipment(records []Equipment, f Filter) []Equipment {
	out := make([]Equipment, 0, len(records))
	for _, eq := range records {
		if f.Match(eq) {
			out = append(out, eq)
		}
	}
	return out
}
