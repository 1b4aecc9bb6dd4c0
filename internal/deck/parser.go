package deck

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoCards is returned when a document contains no parseable card lines.
var ErrNoCards = errors.New("no cards found in import")

var (
	// "Ash Blossom & Joyous Spring x3", "Ash Blossom x 3"
	suffixQuantity = regexp.MustCompile(`^(.*?)\s*[xX]\s*(\d+)$`)
	// "3x Ash Blossom & Joyous Spring". A bare leading number is part of the
	// name, as in "7 Completed".
	prefixQuantity = regexp.MustCompile(`^(\d+)[xX]\s+(.+)$`)
)

// ParseLine parses a single deck-list line into a name and a quantity.
// A line without a quantity counts as one copy. ok is false for blank lines.
func ParseLine(line string) (name string, quantity int, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", 0, false
	}

	if m := suffixQuantity.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		if q, err := strconv.Atoi(m[2]); err == nil {
			return strings.TrimSpace(m[1]), max(q, 1), true
		}
	}
	if m := prefixQuantity.FindStringSubmatch(line); m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil {
			return strings.TrimSpace(m[2]), max(q, 1), true
		}
	}
	return line, 1, true
}

// ParseList parses a newline separated card list into entries for a single area.
func ParseList(raw string, area Area) []Entry {
	var entries []Entry
	for _, line := range strings.Split(raw, "\n") {
		name, qty, ok := ParseLine(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: name, Quantity: qty, Area: area})
	}
	return entries
}

// Document is a parsed multi-section deck list.
type Document struct {
	Entries  []Entry
	Warnings []string
}

// Count returns the number of copies in area.
func (d *Document) Count(area Area) int {
	return CountByArea(d.Entries)[area]
}

// ParseDocument parses a deck list with optional section headers. Recognized
// headers are "#main", "#extra", "!side" and "Main Deck:", "Extra:", "Side Deck:".
// Lines before any header belong to the main deck. Lines starting with "//" or
// any other "#" or "!" directive are skipped.
func ParseDocument(text string) (*Document, error) {
	doc := &Document{}
	area := Main

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if a, ok := sectionHeader(line); ok {
			area = a
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("line %d: skipped directive %q", i+1, line))
			continue
		}

		name, qty, ok := ParseLine(line)
		if !ok {
			continue
		}
		doc.Entries = append(doc.Entries, Entry{Name: name, Quantity: qty, Area: area})
	}

	if len(doc.Entries) == 0 {
		return nil, ErrNoCards
	}
	return doc, nil
}

func sectionHeader(line string) (Area, bool) {
	lower := strings.ToLower(line)
	switch lower {
	case "#main", "#main deck":
		return Main, true
	case "#extra", "#extra deck":
		return Extra, true
	case "!side", "#side", "#side deck":
		return Side, true
	}

	if !strings.HasSuffix(lower, ":") {
		return "", false
	}
	a, err := ParseArea(strings.TrimSuffix(lower, ":"))
	if err != nil {
		return "", false
	}
	return a, true
}
