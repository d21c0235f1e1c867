package assets

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/rendergraph/engine/assets/loaders"
)

/**
 * @brief A bitmap font loaded from an AngelCode descriptor. Glyph pages are
 * used as alpha masks, so one font draws in any colour.
 */
type Font struct {
	name string
	path string
	data *loaders.BitmapFontData
}

func (f *Font) Name() string {
	return f.name
}

func (f *Font) Face() string {
	return f.data.Face
}

func (f *Font) LineHeight() int {
	return f.data.LineHeight
}

// Measure returns the width of the longest line and the height of text in pixels.
func (f *Font) Measure(text string) (int, int) {
	width, lines := 0, 1
	f.layout(text, 0, 0, func(x, y int, g loaders.FontGlyph) {
		if right := x + g.XAdvance; right > width {
			width = right
		}
	}, func() { lines++ })
	return width, lines * f.data.LineHeight
}

// DrawText draws text with its top left corner at (x, y). Runes missing from
// the font fall back to '?' and are skipped when that is missing too.
func (f *Font) DrawText(dst draw.Image, x, y int, text string, c color.Color) {
	src := image.NewUniform(c)
	f.layout(text, x, y, func(penX, penY int, g loaders.FontGlyph) {
		page := f.data.Pages[g.PageID]
		r := image.Rect(0, 0, g.Width, g.Height).Add(image.Pt(penX+g.XOffset, penY+g.YOffset))
		draw.DrawMask(dst, r, src, image.Point{}, page, image.Pt(g.X, g.Y), draw.Over)
	}, nil)
}

func (f *Font) layout(text string, x, y int, glyph func(x, y int, g loaders.FontGlyph), newline func()) {
	penX, penY := x, y
	var previous rune = -1
	for _, r := range text {
		if r == '\n' {
			penX = x
			penY += f.data.LineHeight
			previous = -1
			if newline != nil {
				newline()
			}
			continue
		}
		g, ok := f.data.Glyphs[r]
		if !ok {
			if g, ok = f.data.Glyphs['?']; !ok {
				continue
			}
		}
		if previous >= 0 {
			penX += f.data.Kernings[loaders.FontKerning{Codepoint0: previous, Codepoint1: g.Codepoint}]
		}
		glyph(penX, penY, g)
		penX += g.XAdvance
		previous = g.Codepoint
	}
}
