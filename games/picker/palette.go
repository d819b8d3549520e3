/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package picker

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a palette entry: a normalized hex value and its display name.
type Color struct {
	Hex  string `json:"hex"`
	Name string `json:"name"`
}

var defaultPalette = []Color{
	{Hex: "#44af69", Name: "Green"},
	{Hex: "#f8333c", Name: "Red"},
	{Hex: "#e59500", Name: "Orange"},
	{Hex: "#2b9eb3", Name: "Cyan"},
	{Hex: "#d8d52b", Name: "Yellow"},
	{Hex: "#d200e9", Name: "Purple"},
	{Hex: "#5c415d", Name: "Violet"},
}

// DefaultPalette returns a copy of the built-in seven color palette.
func DefaultPalette() []Color {
	out := make([]Color, len(defaultPalette))
	copy(out, defaultPalette)
	return out
}

// ParsePalette reads entries of the form "Name=#hex".
func ParsePalette(entries []string) ([]Color, error) {
	if len(entries) == 0 {
		return nil, errors.New("palette must contain at least one color")
	}

	out := make([]Color, 0, len(entries))
	for _, entry := range entries {
		name, hex, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		hex = strings.TrimSpace(hex)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid palette entry %q (want Name=#hex)", entry)
		}

		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid color for %s: %w", name, err)
		}

		out = append(out, Color{Hex: c.Hex(), Name: name})
	}

	return out, nil
}

// assigner hands out palette colors in order, wrapping around.
type assigner struct {
	palette []Color
	next    int
}

func newAssigner(palette []Color, offset int) *assigner {
	if len(palette) == 0 {
		palette = defaultPalette
	}

	return &assigner{
		palette: palette,
		next:    offset % len(palette),
	}
}

func (a *assigner) Next() Color {
	c := a.palette[a.next]
	a.next = (a.next + 1) % len(a.palette)
	return c
}
