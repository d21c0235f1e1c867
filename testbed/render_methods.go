package testbed

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

var (
	skyTop      = color.RGBA{R: 40, G: 70, B: 140, A: 255}
	skyBottom   = color.RGBA{R: 170, G: 200, B: 235, A: 255}
	glassColour = color.RGBA{R: 60, G: 60, B: 120, A: 96}
	textColour  = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	editorFrame = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

func (s *gameState) target() (draw.Image, image.Rectangle) {
	dst := s.ctx.Device.Target()
	bounds := dst.Bounds()
	if stage := s.ctx.Device.Bound(); stage != nil {
		bounds = stage.Viewport()
	}
	return dst, bounds
}

func (s *gameState) renderSky() {
	if !s.ctx.Visible("sky") {
		return
	}
	dst, bounds := s.target()
	height := bounds.Dy()
	if height == 0 {
		return
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		t := float64(y-bounds.Min.Y) / float64(height)
		row := image.Rect(bounds.Min.X, y, bounds.Max.X, y+1)
		draw.Draw(dst, row, image.NewUniform(lerp(skyTop, skyBottom, t)), image.Point{}, draw.Src)
	}
}

func (s *gameState) renderOpaqueObjects() {
	if !s.ctx.Visible("opaque") {
		return
	}
	dst, bounds := s.target()
	for _, b := range s.boxes {
		draw.Draw(dst, b.rect.Intersect(bounds), image.NewUniform(b.colour), image.Point{}, draw.Src)
	}
}

func (s *gameState) renderTransparentObjects() {
	if !s.ctx.Visible("transparent") {
		return
	}
	dst, bounds := s.target()
	glass := image.Rect(bounds.Min.X, bounds.Max.Y-bounds.Dy()/4, bounds.Max.X, bounds.Max.Y)
	draw.Draw(dst, glass, image.NewUniform(glassColour), image.Point{}, draw.Over)
}

// renderQuad scales the offscreen scene texture onto the bound target.
func (s *gameState) renderQuad() {
	scene, ok := s.ctx.Assets.TextureByName(SceneColourTexture)
	if !ok {
		core.LogWarn("quad: texture '%s' is not loaded", SceneColourTexture)
		return
	}
	dst, bounds := s.target()
	src := scene.Image()
	draw.ApproxBiLinear.Scale(dst, bounds, src, src.Bounds(), draw.Src, nil)
}

func (s *gameState) renderGUIImages() {
	if !s.ctx.Visible("gui") {
		return
	}
	logo, ok := s.ctx.Assets.TextureByName(LogoTexture)
	if !ok {
		return
	}
	dst, bounds := s.target()
	src := logo.Image()
	at := image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()).Add(image.Pt(bounds.Max.X-src.Bounds().Dx()-4, bounds.Min.Y+4))
	draw.Draw(dst, at, src, src.Bounds().Min, draw.Over)
}

func (s *gameState) renderGUITexts() {
	if !s.ctx.Visible("gui") {
		return
	}
	if s.font == nil {
		s.drawText(s.title, 4, 14)
		return
	}
	dst, bounds := s.target()
	s.font.DrawText(dst, bounds.Min.X+4, bounds.Min.Y+4, s.title, textColour)
}

func (s *gameState) renderDebug() {
	if !s.ctx.Visible("debug") {
		return
	}
	fps, frameTime := core.MetricsFrame()
	s.drawText(fmt.Sprintf("frame %d  %.0f fps  %.2f ms", s.ctx.Frame, fps, frameTime), 4, 28)
}

func (s *gameState) renderEditor() {
	dst, bounds := s.target()
	if bounds.Empty() {
		return
	}
	edges := []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+1),
		image.Rect(bounds.Min.X, bounds.Max.Y-1, bounds.Max.X, bounds.Max.Y),
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+1, bounds.Max.Y),
		image.Rect(bounds.Max.X-1, bounds.Min.Y, bounds.Max.X, bounds.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(dst, edge, image.NewUniform(editorFrame), image.Point{}, draw.Src)
	}
}

func (s *gameState) drawText(text string, x, y int) {
	dst, bounds := s.target()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColour),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(bounds.Min.X+x, bounds.Min.Y+y),
	}
	d.DrawString(text)
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

/** @brief Post process plugin darkening the border of the bound target. */
type vignette struct {
	state    *gameState
	strength float64
}

func (v *vignette) Name() string {
	return "vignette"
}

func (v *vignette) Priority() pipeline.Priority {
	return 50
}

func (v *vignette) Invoke() {
	dst, bounds := v.state.target()
	rgba, ok := dst.(*image.RGBA)
	if !ok || bounds.Empty() {
		return
	}
	cx, cy := float64(bounds.Min.X+bounds.Max.X)/2, float64(bounds.Min.Y+bounds.Max.Y)/2
	hw, hh := float64(bounds.Dx())/2, float64(bounds.Dy())/2
	maxDist := hw*hw + hh*hh
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			falloff := 1 - v.strength*(dx*dx+dy*dy)/maxDist
			if falloff >= 1 {
				continue
			}
			if falloff < 0 {
				falloff = 0
			}
			c := rgba.RGBAAt(x, y)
			c.R = uint8(float64(c.R) * falloff)
			c.G = uint8(float64(c.G) * falloff)
			c.B = uint8(float64(c.B) * falloff)
			rgba.SetRGBA(x, y, c)
		}
	}
}
