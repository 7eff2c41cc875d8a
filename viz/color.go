package viz

import (
	"fmt"
	"strconv"
	"strings"
)

type Color struct {
	R, G, B uint8
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

type Palette []Color

// Color selects the color of the i-th scan.
func (p Palette) Color(i int) Color {
	if len(p) == 0 {
		return Color{R: 255, G: 255, B: 255}
	}
	return p[i%len(p)]
}

// ParsePalette parses a list of colors, see ParseColor.
func ParsePalette(colors []string) (Palette, error) {
	p := make(Palette, 0, len(colors))
	for _, s := range colors {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return p, nil
}

// LabelPalette is a qualitative palette for telling neighbouring scans apart.
var LabelPalette = Palette{
	{R: 0x1f, G: 0x77, B: 0xb4},
	{R: 0xff, G: 0x7f, B: 0x0e},
	{R: 0x2c, G: 0xa0, B: 0x2c},
	{R: 0xd6, G: 0x27, B: 0x28},
	{R: 0x94, G: 0x67, B: 0xbd},
	{R: 0x8c, G: 0x56, B: 0x4b},
	{R: 0xe3, G: 0x77, B: 0xc2},
	{R: 0x7f, G: 0x7f, B: 0x7f},
	{R: 0xbc, G: 0xbd, B: 0x22},
	{R: 0x17, G: 0xbe, B: 0xcf},
}
