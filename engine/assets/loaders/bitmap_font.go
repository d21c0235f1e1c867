package loaders

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/fzipp/bmfont"
)

/** @brief Placement of one glyph inside a font page. */
type FontGlyph struct {
	Codepoint rune
	X         int
	Y         int
	Width     int
	Height    int
	XOffset   int
	YOffset   int
	XAdvance  int
	PageID    int
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
}

/** @brief A decoded AngelCode bitmap font with its page images. */
type BitmapFontData struct {
	Face       string
	Size       int
	LineHeight int
	Baseline   int
	AtlasSizeX int
	AtlasSizeY int
	Glyphs     map[rune]FontGlyph
	Kernings   map[FontKerning]int
	Pages      map[int]*image.RGBA
}

// BitmapFontLoader reads AngelCode .fnt descriptors. Page images are
// decoded with the texture loader, relative to the descriptor.
type BitmapFontLoader struct {
	Pages TextureLoader
}

func (fl *BitmapFontLoader) Load(path string) (*Resource, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".fnt" {
		return nil, fmt.Errorf("unsupported bitmap font type '%s' for %s", ext, path)
	}

	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading bitmap font %s: %w", path, err)
	}
	desc := font.Descriptor

	data := &BitmapFontData{
		Face:       desc.Info.Face,
		Size:       int(desc.Info.Size),
		LineHeight: int(desc.Common.LineHeight),
		Baseline:   int(desc.Common.Base),
		AtlasSizeX: int(desc.Common.ScaleW),
		AtlasSizeY: int(desc.Common.ScaleH),
		Glyphs:     make(map[rune]FontGlyph, len(desc.Chars)),
		Kernings:   make(map[FontKerning]int, len(desc.Kerning)),
		Pages:      make(map[int]*image.RGBA, len(desc.Pages)),
	}

	dataSize := uint64(0)
	dir := filepath.Dir(path)
	for _, p := range desc.Pages {
		res, err := fl.Pages.Load(filepath.Join(dir, p.File))
		if err != nil {
			return nil, fmt.Errorf("bitmap font %s page %d: %w", path, p.ID, err)
		}
		data.Pages[int(p.ID)] = res.Data.(*image.RGBA)
		dataSize += res.DataSize
	}

	for _, g := range desc.Chars {
		glyph := FontGlyph{
			Codepoint: rune(g.ID),
			X:         int(g.X),
			Y:         int(g.Y),
			Width:     int(g.Width),
			Height:    int(g.Height),
			XOffset:   int(g.XOffset),
			YOffset:   int(g.YOffset),
			XAdvance:  int(g.XAdvance),
			PageID:    int(g.Page),
		}
		if _, ok := data.Pages[glyph.PageID]; !ok {
			return nil, fmt.Errorf("bitmap font %s: glyph %q refers to missing page %d", path, glyph.Codepoint, glyph.PageID)
		}
		data.Glyphs[glyph.Codepoint] = glyph
	}

	for p, k := range desc.Kerning {
		data.Kernings[FontKerning{Codepoint0: rune(p.First), Codepoint1: rune(p.Second)}] = int(k.Amount)
	}

	return &Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		DataSize: dataSize,
		Data:     data,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *Resource) error {
	if resource.Data != nil {
		data := resource.Data.(*BitmapFontData)
		data.Glyphs = nil
		data.Kernings = nil
		data.Pages = nil
		resource.Data = nil
		resource.DataSize = 0
		resource.FullPath = ""
	}
	return nil
}
