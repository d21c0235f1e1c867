package assets

import (
	"image"
	"sync/atomic"
)

/**
 * @brief Represents a texture shared between the asset manager and any number
 * of pipelines.
 */
type Texture struct {
	id     uint32
	name   string
	path   string
	width  uint32
	height uint32
	pixels *image.RGBA
	/** @brief Incremented every time the data is reloaded. */
	generation atomic.Uint32
}

func (t *Texture) SerializeID() uint32 {
	return t.id
}

func (t *Texture) Name() string {
	return t.name
}

func (t *Texture) Size() (uint32, uint32) {
	return t.width, t.height
}

// SourcePath is the file the pixels were loaded from, empty for render targets.
func (t *Texture) SourcePath() string {
	return t.path
}

func (t *Texture) Image() *image.RGBA {
	return t.pixels
}

// Generation counts the reloads of the source file. It is safe to read while
// a watcher reloads the texture.
func (t *Texture) Generation() uint32 {
	return t.generation.Load()
}
