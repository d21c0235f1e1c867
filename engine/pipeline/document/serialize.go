package document

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

// Optional texture capabilities recorded when present.
type sizedTexture interface {
	Size() (uint32, uint32)
}

type sourcedTexture interface {
	SourcePath() string
}

// Serialize captures the configuration of p. Render methods are stored by
// name in execution order, textures by serialize id.
func Serialize(p *pipeline.Pipeline) (*Document, error) {
	doc := &Document{
		Version:  CurrentVersion,
		Textures: make([]TextureDocument, 0, len(p.Textures())),
		Stages:   make([]StageDocument, 0, p.StageCount()),
	}

	for _, texture := range p.Textures() {
		td := TextureDocument{
			ID:   texture.SerializeID(),
			Name: texture.Name(),
		}
		if st, ok := texture.(sizedTexture); ok {
			td.Width, td.Height = st.Size()
		}
		if st, ok := texture.(sourcedTexture); ok {
			td.Path = st.SourcePath()
		}
		doc.Textures = append(doc.Textures, td)
	}

	for i, stageInfo := range p.Stages() {
		if stageInfo.Name == "" {
			return nil, fmt.Errorf("stage %d: name: %w", i, ErrMissingAttribute)
		}
		highest := uint32(stageInfo.HighestPriority())
		sd := StageDocument{
			Name:            stageInfo.Name,
			Clear:           stageInfo.Clear,
			Width:           stageInfo.Config.Width,
			Height:          stageInfo.Config.Height,
			HighestPriority: &highest,
			Methods:         make([]string, 0),
			CameraTags:      append(make([]string, 0, len(stageInfo.CameraTags)), stageInfo.CameraTags...),
			RenderTags:      append(make([]string, 0, len(stageInfo.RenderTags)), stageInfo.RenderTags...),
		}
		if stageInfo.Config.ClearColour != ([4]float32{}) {
			sd.ClearColour = stageInfo.Config.ClearColour[:]
		}
		for _, method := range stageInfo.RenderMethods() {
			sd.Methods = append(sd.Methods, method.Name())
		}
		// plugins registered on the stage, whether or not they run as a method
		sd.ExternalMethods = stageInfo.ExternalRenderMethodNames()
		for _, attachment := range stageInfo.Config.Attachments {
			if attachment.Texture == nil {
				return nil, fmt.Errorf("stage '%s': attachment without texture: %w", stageInfo.Name, ErrMissingTexture)
			}
			id := attachment.Texture.SerializeID()
			if _, ok := p.Texture(id); !ok {
				return nil, fmt.Errorf("stage '%s': texture %d: %w", stageInfo.Name, id, ErrMissingTexture)
			}
			sd.Attachments = append(sd.Attachments, AttachmentDocument{
				Type:    attachment.Type.String(),
				Texture: id,
			})
		}
		doc.Stages = append(doc.Stages, sd)
	}
	return doc, nil
}

// Save serializes p to path, the codec is picked from the extension.
func Save(path string, p *pipeline.Pipeline) error {
	doc, err := Serialize(p)
	if err != nil {
		return err
	}
	if err := WriteFile(path, doc); err != nil {
		return err
	}
	core.LogInfo("pipeline with %d stages saved to %s", len(doc.Stages), path)
	return nil
}
