// Package scenario derives scenarios from process items.
//
// A scenario is not stored. It is the set of process items sharing a
// scenario id; its title may carry a numeric prefix ("3. Night city") that
// orders scenarios for display.
package scenario

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/haivivi/mediaforge/pkg/store"
)

// Scenario is a derived grouping of process items.
type Scenario struct {
	ID       string              `json:"id" yaml:"id"`
	Title    string              `json:"title" yaml:"title"`
	Sequence int                 `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Archived bool                `json:"isArchived" yaml:"is_archived"`
	Items    []store.ProcessItem `json:"items" yaml:"items"`
}

// ItemIDs returns the ids of the scenario's items.
func (s Scenario) ItemIDs() []string {
	ids := make([]string, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ID
	}
	return ids
}

// Derive groups items by scenario id. Items without a scenario id are not
// part of any scenario. A scenario is archived only when every one of its
// items is archived. Items are ordered by type precedence, then creation
// time; scenarios by sequence, with unnumbered ones last.
func Derive(items []store.ProcessItem) []Scenario {
	index := make(map[string]int)
	var out []Scenario
	for _, it := range items {
		if it.ScenarioID == "" {
			continue
		}
		i, ok := index[it.ScenarioID]
		if !ok {
			i = len(out)
			index[it.ScenarioID] = i
			out = append(out, Scenario{ID: it.ScenarioID, Archived: true})
		}
		s := &out[i]
		s.Items = append(s.Items, it)
		if !it.Archived {
			s.Archived = false
		}
		if s.Title == "" && it.ScenarioTitle != "" {
			s.Title = it.ScenarioTitle
		}
	}

	for i := range out {
		s := &out[i]
		s.Sequence, _ = ParseSequence(s.Title)
		slices.SortStableFunc(s.Items, compareItems)
	}
	slices.SortStableFunc(out, func(a, b Scenario) int {
		switch {
		case a.Sequence == 0 && b.Sequence != 0:
			return 1
		case a.Sequence != 0 && b.Sequence == 0:
			return -1
		}
		return cmp.Or(cmp.Compare(a.Sequence, b.Sequence), strings.Compare(a.Title, b.Title))
	})
	return out
}

func compareItems(a, b store.ProcessItem) int {
	ra, rb := a.Type.Rank(), b.Type.Rank()
	// unknown types sort after known ones
	if ra < 0 {
		ra = len(store.ItemTypes)
	}
	if rb < 0 {
		rb = len(store.ItemTypes)
	}
	return cmp.Or(cmp.Compare(ra, rb), a.CreatedAt.Time().Compare(b.CreatedAt.Time()))
}

// Ungrouped returns the items that belong to no scenario.
func Ungrouped(items []store.ProcessItem) []store.ProcessItem {
	var out []store.ProcessItem
	for _, it := range items {
		if it.ScenarioID == "" {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the scenario with the given id.
func Find(scenarios []Scenario, id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ParseSequence parses the numeric prefix of a scenario title: the leading
// digits, followed by "." or ")" or the end of the title. ok is false when
// the title does not start with a positive number in that form, so
// "3D printing" is not numbered.
func ParseSequence(title string) (n int, ok bool) {
	title = strings.TrimSpace(title)
	end := strings.IndexFunc(title, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(title)
	}
	if end == 0 {
		return 0, false
	}
	if end < len(title) && title[end] != '.' && title[end] != ')' {
		return 0, false
	}
	n, err := strconv.Atoi(title[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NextSequence returns one more than the highest sequence among the
// scenario titles of items, or 1 when none is numbered.
func NextSequence(items []store.ProcessItem) int {
	highest := 0
	for _, it := range items {
		if n, ok := ParseSequence(it.ScenarioTitle); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// New allocates an id and a numbered title for a scenario named title,
// numbered after the scenarios found in items. A title that already carries
// a number keeps it.
func New(title string, items []store.ProcessItem) (id, fullTitle string) {
	title = strings.TrimSpace(title)
	if _, ok := ParseSequence(title); ok {
		return uuid.NewString(), title
	}
	return uuid.NewString(), fmt.Sprintf("%d. %s", NextSequence(items), title)
}
