package avatar

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
)

var palette = []string{
	"#E53935", "#D81B60", "#8E24AA", "#5E35B1",
	"#3949AB", "#1E88E5", "#039BE5", "#00897B",
	"#43A047", "#7CB342", "#F4511E", "#6D4C41",
}

// Letter is the character drawn on a user's avatar.
func Letter(username string) rune {
	r, _ := utf8.DecodeRuneInString(username)
	if r == utf8.RuneError {
		return '?'
	}
	return unicode.ToUpper(r)
}

// Color picks the background for a letter so every user with the same
// initial gets the same colour.
func Color(letter rune) string {
	return palette[int(letter)%len(palette)]
}

// Render draws a square PNG with the letter centred on a coloured background.
func Render(letter rune, size int) ([]byte, error) {
	if size <= 0 {
		size = 100
	}
	dc := gg.NewContext(size, size)
	dc.SetHexColor(Color(letter))
	dc.Clear()

	// the default face is a 13px bitmap font; scale it to roughly half the tile
	half := float64(size) / 2
	scale := float64(size) / 26
	dc.Push()
	dc.ScaleAbout(scale, scale, half, half)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(string(letter), half, half, 0.5, 0.35)
	dc.Pop()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
