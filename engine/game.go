package engine

import (
	"github.com/spaghettifunk/rendergraph/engine/assets"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
	"github.com/spaghettifunk/rendergraph/engine/renderer/software"
)

/**
 * @brief Per frame state shared with render methods. Render methods are bound
 * once, when the registry is built, so they read the frame from here.
 */
type RenderContext struct {
	Device    *software.Device
	Assets    *assets.AssetManager
	Frame     uint64
	DeltaTime float64
	Camera    string

	visible pipeline.TagSet
}

// Visible reports whether objects carrying renderTag are drawn by any stage of
// the current camera.
func (rc *RenderContext) Visible(renderTag string) bool {
	return rc.visible.Has(renderTag)
}

type Game struct {
	State interface{}
	// Binds the render methods the game implements. Called once, before the
	// pipeline is loaded.
	FnRenderMethods RenderMethods
	FnInitialize    Initialize
	FnUpdate        Update
	// Runs after the pipeline, with the last stage bound again.
	FnOverlay  Overlay
	FnShutdown Shutdown
}

type RenderMethods func(ctx *RenderContext) ([]pipeline.RegistryOption, error)
type Initialize func(ctx *RenderContext) error
type Update func(deltaTime float64) error
type Overlay func(ctx *RenderContext) error
type Shutdown func() error
