package testbed

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

func newTestbedEngine(t *testing.T) (*engine.Engine, *TestGame) {
	t.Helper()
	cfg, err := engine.LoadApplicationConfig("engine.toml")
	require.NoError(t, err)
	cfg.LogLevel = "error"
	cfg.MaxFrames = 3
	cfg.Watch = false

	tg, err := NewTestGame()
	require.NoError(t, err)

	e, err := engine.New(cfg, tg.Game)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })
	return e, tg
}

func TestSamplePipelineLoads(t *testing.T) {
	e, _ := newTestbedEngine(t)
	p := e.Pipeline()
	require.Equal(t, 3, p.StageCount())

	var names []string
	for _, s := range p.Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"scene", "composite", "gui"}, names)

	composite, _ := p.Stage(1)
	_, ok := composite.ExternalRenderMethod("vignette")
	assert.True(t, ok)

	assert.True(t, p.IsRenderedBy("main", "opaque"))
	assert.True(t, p.IsRenderedBy("ui", "gui"))
	assert.False(t, p.IsRenderedBy("ui", "opaque"))

	logo, ok := e.Assets().TextureByName(LogoTexture)
	require.True(t, ok)
	w, h := logo.Size()
	assert.Equal(t, uint32(24), w)
	assert.Equal(t, uint32(12), h)

	font, ok := e.Assets().FontByName(UIFont)
	require.True(t, ok)
	assert.Equal(t, "fixed", font.Face())
	assert.Equal(t, 13, font.LineHeight())
}

func TestTitleIsDrawnWithBitmapFont(t *testing.T) {
	e, _ := newTestbedEngine(t)
	require.NoError(t, e.Frame())

	fb := e.Device().Framebuffer()
	font, ok := e.Assets().FontByName(UIFont)
	require.True(t, ok)
	w, h := font.Measure("rendergraph testbed")

	lit := 0
	for y := 4; y < 4+h; y++ {
		for x := 4; x < 4+w; x++ {
			if fb.RGBAAt(x, y) == textColour {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 0)
}

func TestSamplePipelineRenders(t *testing.T) {
	e, _ := newTestbedEngine(t)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.FrameCount())

	fb := e.Device().Framebuffer()
	b := fb.Bounds()

	// the editor frame is drawn over the gui stage, which targets the framebuffer
	assert.Equal(t, editorFrame, fb.RGBAAt(b.Min.X, b.Min.Y))

	// the composited sky is visible in the middle of the top half
	mid := fb.RGBAAt(b.Dx()/2, b.Dy()/3)
	assert.NotEqual(t, color.RGBA{}, mid)
	assert.Equal(t, uint8(255), mid.A)

	scene, ok := e.Assets().TextureByName(SceneColourTexture)
	require.True(t, ok)
	assert.NotEqual(t, color.RGBA{A: 255}, scene.Image().RGBAAt(1, 1))
}

func TestEditorCanBeDisabled(t *testing.T) {
	e, tg := newTestbedEngine(t)
	tg.SetEditorEnabled(false)
	require.NoError(t, e.Frame())

	fb := e.Device().Framebuffer()
	assert.NotEqual(t, editorFrame, fb.RGBAAt(fb.Bounds().Dx()/2, 0))
}

func TestRegistryListsVignette(t *testing.T) {
	e, _ := newTestbedEngine(t)
	names := e.Pipeline().RenderMethodNames()
	assert.Contains(t, names, "vignette")
	assert.Contains(t, names, pipeline.RenderMethodSky)
}
