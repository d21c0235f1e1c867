// Package document persists graphics pipeline configurations. Only the
// configuration is stored; derived state like the camera tag index is rebuilt
// on load through the same code path used when stages are added by hand.
package document

// CurrentVersion is written by Serialize.
const CurrentVersion = 1

// Document is the root pipeline element. Stage order is execution order.
type Document struct {
	Version  int               `toml:"version" yaml:"version" json:"version"`
	Textures []TextureDocument `toml:"textures,omitempty" yaml:"textures,omitempty" json:"textures,omitempty"`
	Stages   []StageDocument   `toml:"stages" yaml:"stages" json:"stages"`
}

// TextureDocument references a texture of the pool by serialize id.
type TextureDocument struct {
	ID     uint32 `toml:"id" yaml:"id" json:"id"`
	Name   string `toml:"name" yaml:"name" json:"name"`
	Path   string `toml:"path,omitempty" yaml:"path,omitempty" json:"path,omitempty"`
	Width  uint32 `toml:"width,omitempty" yaml:"width,omitempty" json:"width,omitempty"`
	Height uint32 `toml:"height,omitempty" yaml:"height,omitempty" json:"height,omitempty"`
}

type StageDocument struct {
	Name            string               `toml:"name" yaml:"name" json:"name"`
	Clear           bool                 `toml:"clear" yaml:"clear" json:"clear"`
	Width           uint32               `toml:"width,omitempty" yaml:"width,omitempty" json:"width,omitempty"`
	Height          uint32               `toml:"height,omitempty" yaml:"height,omitempty" json:"height,omitempty"`
	ClearColour     []float32            `toml:"clear_colour,omitempty" yaml:"clear_colour,omitempty" json:"clear_colour,omitempty"`
	HighestPriority *uint32              `toml:"highest_priority,omitempty" yaml:"highest_priority,omitempty" json:"highest_priority,omitempty"`
	Methods         []string             `toml:"methods" yaml:"methods" json:"methods"`
	ExternalMethods []string             `toml:"external_methods,omitempty" yaml:"external_methods,omitempty" json:"external_methods,omitempty"`
	CameraTags      []string             `toml:"camera_tags" yaml:"camera_tags" json:"camera_tags"`
	RenderTags      []string             `toml:"render_tags" yaml:"render_tags" json:"render_tags"`
	Attachments     []AttachmentDocument `toml:"attachments,omitempty" yaml:"attachments,omitempty" json:"attachments,omitempty"`
}

type AttachmentDocument struct {
	Type    string `toml:"type" yaml:"type" json:"type"`
	Texture uint32 `toml:"texture" yaml:"texture" json:"texture"`
}
