/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import "testing"

func TestAssignerWrapsAround(t *testing.T) {
	palette := DefaultPalette()
	a := newAssigner(palette, 5)

	want := []string{"Purple", "Violet", "Green", "Red"}
	for i, name := range want {
		if got := a.Next().Name; got != name {
			t.Errorf("Draw %d: expected %s, got %s", i, name, got)
		}
	}
}

func TestAssignerOffsetWraps(t *testing.T) {
	a := newAssigner(DefaultPalette(), 15)

	if got := a.Next().Name; got != "Red" {
		t.Errorf("Expected offset 15 to start on Red, got %s", got)
	}
}

func TestParsePalette(t *testing.T) {
	colors, err := ParsePalette([]string{"Blue=#0000FF", " Pink = #ff69b4 "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(colors) != 2 {
		t.Fatalf("Expected 2 colors, got %d", len(colors))
	}
	if colors[0] != (Color{Hex: "#0000ff", Name: "Blue"}) {
		t.Errorf("Expected normalized Blue, got %+v", colors[0])
	}
	if colors[1] != (Color{Hex: "#ff69b4", Name: "Pink"}) {
		t.Errorf("Expected trimmed Pink, got %+v", colors[1])
	}
}

func TestParsePaletteErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{"empty", nil},
		{"no separator", []string{"#ffffff"}},
		{"no name", []string{"=#ffffff"}},
		{"bad hex", []string{"Gray=#zzzzzz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePalette(tt.entries); err == nil {
				t.Errorf("Expected error for %v", tt.entries)
			}
		})
	}
}

func TestDefaultPaletteIsCopy(t *testing.T) {
	p := DefaultPalette()
	p[0].Name = "Changed"

	if DefaultPalette()[0].Name != "Green" {
		t.Error("Expected DefaultPalette to return an independent copy")
	}
}
