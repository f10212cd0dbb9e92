package grocery

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"nutriportal/internal/domain"
)

// ExtractCandidateLines collects the food-like lines of a weekly menu,
// deduplicated and in first-seen order. Day texts are split on newlines;
// slot-list entries are taken one per line.
func ExtractCandidateLines(menu domain.WeeklyMenu) []string {
	var raw []string
	switch menu.Kind() {
	case domain.MenuDayArray:
		for _, day := range menu.Days() {
			for _, slot := range domain.MealSlots {
				raw = append(raw, strings.Split(day.Slot(slot), "\n")...)
			}
		}
	case domain.MenuSlotList:
		lists, _ := menu.SlotLists()
		for _, slot := range domain.MealSlots {
			raw = append(raw, lists.Slot(slot)...)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	lines := make([]string, 0, len(raw))
	for _, r := range raw {
		line := cleanLine(r)
		if !isCandidate(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

// Classify assigns a line to the first category with a matching keyword and
// returns the canonical name to list. Lines without a keyword are kept under
// Other only when they look like a standalone ingredient; ok is false when
// the line is dropped.
func Classify(line string) (cat Category, name string, ok bool) {
	n := normalize(line)
	for _, c := range Categories {
		for _, g := range compiledTable[c] {
			for _, kw := range g.keywords {
				if containsWord(n, kw) {
					return c, g.name, true
				}
			}
		}
	}
	line = strings.TrimSpace(line)
	if !looksLikeIngredient(line) {
		return "", "", false
	}
	return Other, displayName(line), true
}

// Build derives the shopping list of a weekly menu. Names are unique per
// category and sorted alphabetically, ignoring case, with Spanish collation.
// Only non-empty categories are present. Build has no side effects.
func Build(menu domain.WeeklyMenu) List {
	sets := make(map[Category]map[string]struct{})
	for _, line := range ExtractCandidateLines(menu) {
		c, name, ok := Classify(line)
		if !ok {
			continue
		}
		if sets[c] == nil {
			sets[c] = make(map[string]struct{})
		}
		sets[c][name] = struct{}{}
	}

	col := collate.New(language.Spanish, collate.IgnoreCase)
	list := make(List, len(sets))
	for c, set := range sets {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		// Collation ties keep byte order.
		slices.Sort(names)
		slices.SortStableFunc(names, col.CompareString)
		list[c] = names
	}
	return list
}
