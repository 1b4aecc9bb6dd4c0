package deck

import (
	"errors"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantQty  int
		wantOK   bool
	}{
		{"Ash Blossom & Joyous Spring x3", "Ash Blossom & Joyous Spring", 3, true},
		{"Ash Blossom & Joyous Spring X2", "Ash Blossom & Joyous Spring", 2, true},
		{"Effect Veiler x 2", "Effect Veiler", 2, true},
		{"3x Maxx \"C\"", "Maxx \"C\"", 3, true},
		{"7 Completed", "7 Completed", 1, true},
		{"7 Colored Fish x2", "7 Colored Fish", 2, true},
		{"3X 7 Completed", "7 Completed", 3, true},
		{"2x Called by the Grave", "Called by the Grave", 2, true},
		{"Pot of Prosperity", "Pot of Prosperity", 1, true},
		{"  Nibiru, the Primal Being  ", "Nibiru, the Primal Being", 1, true},
		{"Infinite Impermanence x0", "Infinite Impermanence", 1, true},
		{"", "", 0, false},
		{"   ", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, qty, ok := ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if qty != tt.wantQty {
				t.Errorf("quantity = %d, want %d", qty, tt.wantQty)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	raw := "Accesscode Talker x1\n\nI:P Masquerena\n2x Knightmare Unicorn\n"
	entries := ParseList(raw, Extra)

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Area != Extra {
			t.Errorf("entry %q area = %s, want EXTRA", e.Name, e.Area)
		}
	}
	if entries[2].Quantity != 2 || entries[2].Name != "Knightmare Unicorn" {
		t.Errorf("unexpected third entry: %+v", entries[2])
	}
}

func TestParseDocument(t *testing.T) {
	text := `// created by a deck builder
Ash Blossom & Joyous Spring x3
Effect Veiler x2

Extra Deck:
Accesscode Talker

#side
Droll & Lock Bird x3
#created by someone`

	doc, err := ParseDocument(text)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if got := doc.Count(Main); got != 5 {
		t.Errorf("main count = %d, want 5", got)
	}
	if got := doc.Count(Extra); got != 1 {
		t.Errorf("extra count = %d, want 1", got)
	}
	if got := doc.Count(Side); got != 3 {
		t.Errorf("side count = %d, want 3", got)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("expected 1 warning for the unknown directive, got %v", doc.Warnings)
	}
}

func TestParseDocument_Empty(t *testing.T) {
	_, err := ParseDocument("// nothing here\n\n")
	if !errors.Is(err, ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
}

func TestParseArea(t *testing.T) {
	tests := map[string]Area{
		"main":       Main,
		"":           Main,
		"Extra Deck": Extra,
		"side":       Side,
		"Sideboard":  Side,
	}
	for in, want := range tests {
		got, err := ParseArea(in)
		if err != nil {
			t.Errorf("ParseArea(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseArea(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseArea("graveyard"); err == nil {
		t.Error("expected error for unknown area")
	}
}
