// Package software is a headless implementation of the pipeline stage
// interface. Targets are plain RGBA images, which makes it usable for tests,
// tooling and offline previews.
package software

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

/** @brief Exposes the pixels of a texture usable as a colour attachment. */
type imageTexture interface {
	Image() *image.RGBA
}

type Device struct {
	framebuffer *image.RGBA
	bound       *Stage
	activations uint64
	clears      uint64
}

func NewDevice(width, height int) *Device {
	return &Device{
		framebuffer: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Framebuffer is the default target, used by stages without a colour attachment.
func (d *Device) Framebuffer() *image.RGBA {
	return d.framebuffer
}

// Bound returns the stage activated last, nil before any activation.
func (d *Device) Bound() *Stage {
	return d.bound
}

// Target returns the image render methods should draw into.
func (d *Device) Target() draw.Image {
	if d.bound == nil {
		return d.framebuffer
	}
	return d.bound.target
}

func (d *Device) Stats() (activations, clears uint64) {
	return d.activations, d.clears
}

// NewStage implements document.StageFactory.
func (d *Device) NewStage(name string, config pipeline.StageConfig) (pipeline.Stage, error) {
	s := &Stage{
		name:        name,
		device:      d,
		clearColour: toColour(config.ClearColour),
	}

	for _, attachment := range config.Attachments {
		switch attachment.Type {
		case pipeline.AttachmentTypeColour:
			if s.target != nil {
				return nil, fmt.Errorf("stage '%s': only one colour attachment is supported", name)
			}
			it, ok := attachment.Texture.(imageTexture)
			if !ok || it.Image() == nil {
				return nil, fmt.Errorf("stage '%s': texture '%s' has no pixel storage", name, attachment.Texture.Name())
			}
			s.target = it.Image()
		case pipeline.AttachmentTypeDepth:
			core.LogDebug("stage '%s': depth attachment '%s' ignored by software device", name, attachment.Texture.Name())
		}
	}

	if s.target == nil {
		s.target = d.framebuffer
	}
	s.viewport = s.target.Bounds()
	if config.Width > 0 && config.Height > 0 {
		s.viewport = image.Rect(0, 0, int(config.Width), int(config.Height)).Intersect(s.target.Bounds())
	}
	return s, nil
}

type Stage struct {
	name        string
	device      *Device
	target      *image.RGBA
	viewport    image.Rectangle
	clearColour color.RGBA
}

func (s *Stage) Name() string {
	return s.name
}

// Activate binds the stage target and clears its viewport when asked to.
func (s *Stage) Activate(clear bool) {
	s.device.bound = s
	s.device.activations++
	if clear {
		draw.Draw(s.target, s.viewport, image.NewUniform(s.clearColour), image.Point{}, draw.Src)
		s.device.clears++
	}
}

func (s *Stage) Target() *image.RGBA {
	return s.target
}

func (s *Stage) Viewport() image.Rectangle {
	return s.viewport
}

func toColour(c [4]float32) color.RGBA {
	clamp := func(v float32) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		default:
			return uint8(v*255 + 0.5)
		}
	}
	return color.RGBA{R: clamp(c[0]), G: clamp(c[1]), B: clamp(c[2]), A: clamp(c[3])}
}
