package testbed

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/assets"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

// Texture names the sample pipeline refers to.
const (
	SceneColourTexture = "scene_colour"
	LogoTexture        = "logo"
)

// UIFont is the bitmap font the gui text method draws with.
const (
	UIFont     = "ui"
	UIFontPath = "fonts/ui.fnt"
)

type TestGame struct {
	*engine.Game
}

// box slides along the x axis, velocity is in pixels per second.
type box struct {
	rect     image.Rectangle
	colour   color.RGBA
	x        float64
	velocity float64
}

type gameState struct {
	ctx  *engine.RenderContext
	font *assets.Font

	boxes   []*box
	elapsed float64
	title   string

	editorEnabled bool
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				title:         "rendergraph testbed",
				editorEnabled: true,
			},
		},
	}

	tg.FnRenderMethods = tg.RenderMethods
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOverlay = tg.Overlay
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

// RenderMethods binds the render methods the testbed implements on the software device.
func (g *TestGame) RenderMethods(ctx *engine.RenderContext) ([]pipeline.RegistryOption, error) {
	state := g.State.(*gameState)
	state.ctx = ctx

	return []pipeline.RegistryOption{
		pipeline.WithBuiltin(pipeline.RenderMethodSky, 1, state.renderSky),
		pipeline.WithBuiltin(pipeline.RenderMethodQuad, 5, state.renderQuad),
		pipeline.WithBuiltin(pipeline.RenderMethodOpaqueObjects, 10, state.renderOpaqueObjects),
		pipeline.WithBuiltin(pipeline.RenderMethodTransparentObjects, 20, state.renderTransparentObjects),
		pipeline.WithBuiltin(pipeline.RenderMethodGUIImages, 25, state.renderGUIImages),
		pipeline.WithBuiltin(pipeline.RenderMethodGUITexts, 30, state.renderGUITexts),
		pipeline.WithBuiltin(pipeline.RenderMethodDebug, 40, state.renderDebug),
		pipeline.WithExternal(&vignette{state: state, strength: 0.6}),
	}, nil
}

func (g *TestGame) Initialize(ctx *engine.RenderContext) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.State.(*gameState)
	if state.ctx == nil {
		return fmt.Errorf("render methods were not bound before initialize")
	}

	scene, ok := ctx.Assets.TextureByName(SceneColourTexture)
	if !ok {
		return fmt.Errorf("texture '%s' is not loaded", SceneColourTexture)
	}
	w, h := scene.Size()

	font, err := ctx.Assets.LoadFont(UIFont, UIFontPath)
	if err != nil {
		return fmt.Errorf("loading font '%s': %w", UIFont, err)
	}
	state.font = font

	state.boxes = []*box{
		{rect: image.Rect(0, 0, int(w)/6, int(h)/4).Add(image.Pt(int(w)/8, int(h)/2)), colour: color.RGBA{R: 200, G: 60, B: 40, A: 255}, velocity: 40},
		{rect: image.Rect(0, 0, int(w)/8, int(h)/3).Add(image.Pt(int(w)/2, int(h)/3)), colour: color.RGBA{R: 40, G: 160, B: 70, A: 255}, velocity: -25},
	}
	for _, b := range state.boxes {
		b.x = float64(b.rect.Min.X)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime

	scene, ok := state.ctx.Assets.TextureByName(SceneColourTexture)
	if !ok {
		return fmt.Errorf("texture '%s' was released", SceneColourTexture)
	}
	bounds := scene.Image().Bounds()

	for _, b := range state.boxes {
		x := b.x + b.velocity*deltaTime
		moved := b.rect.Add(image.Pt(int(x)-b.rect.Min.X, 0))
		if moved.Min.X < bounds.Min.X || moved.Max.X > bounds.Max.X {
			b.velocity = -b.velocity
			continue
		}
		b.x = x
		b.rect = moved
	}
	return nil
}

// Overlay draws the editor frame on top of whatever stage rendered last.
func (g *TestGame) Overlay(ctx *engine.RenderContext) error {
	state := g.State.(*gameState)
	if !state.editorEnabled {
		return nil
	}
	state.renderEditor()
	return nil
}

func (g *TestGame) SetEditorEnabled(enabled bool) {
	g.State.(*gameState).editorEnabled = enabled
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	state.boxes = nil
	core.LogDebug("testbed shut down after %.2fs", state.elapsed)
	return nil
}
