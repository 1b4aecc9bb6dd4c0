// Package deck models deck-list entries and turns them into the flattened main
// deck multiset used by the probability and combo packages.
package deck

import (
	"fmt"
	"sort"
	"strings"
)

// Area is the part of a deck a card entry belongs to.
type Area string

const (
	Main  Area = "MAIN"
	Extra Area = "EXTRA"
	Side  Area = "SIDE"
)

// ParseArea converts user input such as "main", "Extra Deck" or "side" to an Area.
func ParseArea(s string) (Area, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " DECK")
	switch s {
	case "", "MAIN":
		return Main, nil
	case "EXTRA":
		return Extra, nil
	case "SIDE", "SIDEBOARD":
		return Side, nil
	default:
		return "", fmt.Errorf("unknown deck area %q", s)
	}
}

// Entry is one deck-list line: a card name, its copy count and its area.
type Entry struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Area     Area     `json:"area"`
	Tags     []string `json:"tags,omitempty"`
}

// MainDeck expands main deck entries into one element per physical copy.
// Entries sharing a name are expanded independently.
func MainDeck(entries []Entry) []string {
	cards := make([]string, 0, MainCount(entries))
	for _, e := range entries {
		if e.Area != Main {
			continue
		}
		for i := 0; i < e.Quantity; i++ {
			cards = append(cards, e.Name)
		}
	}
	return cards
}

// MainCount returns the number of physical cards in the main deck.
func MainCount(entries []Entry) int {
	total := 0
	for _, e := range entries {
		if e.Area == Main && e.Quantity > 0 {
			total += e.Quantity
		}
	}
	return total
}

// CountByArea returns the copy count of every area present.
func CountByArea(entries []Entry) map[Area]int {
	counts := make(map[Area]int)
	for _, e := range entries {
		counts[e.Area] += e.Quantity
	}
	return counts
}

// Aggregate merges entries with the same name and area, summing quantities and
// taking the union of their tags. Order of first appearance is kept.
func Aggregate(entries []Entry) []Entry {
	type key struct {
		name string
		area Area
	}
	index := make(map[key]int)
	out := make([]Entry, 0, len(entries))

	for _, e := range entries {
		k := key{strings.ToLower(e.Name), e.Area}
		if i, ok := index[k]; ok {
			out[i].Quantity += e.Quantity
			out[i].Tags = mergeTags(out[i].Tags, e.Tags)
			continue
		}
		index[k] = len(out)
		e.Tags = mergeTags(nil, e.Tags)
		out = append(out, e)
	}
	return out
}

// CountNames returns the number of main deck copies whose name is in names.
func CountNames(entries []Entry, names []string) int {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	total := 0
	for _, e := range entries {
		if e.Area != Main {
			continue
		}
		if _, ok := set[e.Name]; ok {
			total += e.Quantity
		}
	}
	return total
}

// HasTag reports whether the entry carries tag, ignoring case.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// CountTagged returns the number of main deck copies carrying tag.
func CountTagged(entries []Entry, tag string) int {
	total := 0
	for _, e := range entries {
		if e.Area == Main && e.HasTag(tag) {
			total += e.Quantity
		}
	}
	return total
}

// NamesWithTag returns the distinct main deck card names carrying tag.
func NamesWithTag(entries []Entry, tag string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range entries {
		if e.Area != Main || !e.HasTag(tag) {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
	}
	return names
}

// TagNames returns every tag used by a main deck entry, sorted.
func TagNames(entries []Entry) []string {
	seen := make(map[string]string)
	for _, e := range entries {
		if e.Area != Main {
			continue
		}
		for _, t := range e.Tags {
			k := strings.ToLower(t)
			if _, ok := seen[k]; !ok {
				seen[k] = t
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for _, t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func mergeTags(dst, src []string) []string {
	for _, t := range src {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if strings.EqualFold(existing, t) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, t)
		}
	}
	return dst
}

// NormalizeTags trims, drops empties and removes case-insensitive duplicates.
func NormalizeTags(tags []string) []string {
	out := mergeTags(nil, tags)
	if out == nil {
		return []string{}
	}
	return out
}
