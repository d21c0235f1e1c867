package document

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

// TextureProvider supplies the shared texture for a document entry. The
// returned texture must carry the requested serialize id.
type TextureProvider interface {
	Texture(doc TextureDocument) (pipeline.Texture, error)
}

// StageFactory creates the rendering pass object for a stage.
type StageFactory interface {
	NewStage(name string, config pipeline.StageConfig) (pipeline.Stage, error)
}

type Dependencies struct {
	Registry *pipeline.Registry
	Textures TextureProvider
	Stages   StageFactory
}

func (d Dependencies) validate() error {
	if d.Registry == nil {
		return fmt.Errorf("deserialize: registry: %w", ErrMissingAttribute)
	}
	if d.Textures == nil {
		return fmt.Errorf("deserialize: texture provider: %w", ErrMissingAttribute)
	}
	if d.Stages == nil {
		return fmt.Errorf("deserialize: stage factory: %w", ErrMissingAttribute)
	}
	return nil
}

// Deserialize rebuilds a pipeline from doc. Any unresolved render method,
// texture reference or missing attribute fails the whole load, a partial
// pipeline is never returned.
func Deserialize(doc *Document, deps Dependencies) (*pipeline.Pipeline, error) {
	if doc == nil {
		return nil, fmt.Errorf("deserialize: document: %w", ErrMissingAttribute)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	p := pipeline.New(deps.Registry)
	for _, td := range doc.Textures {
		if td.Name == "" {
			return nil, fmt.Errorf("texture %d: name: %w", td.ID, ErrMissingAttribute)
		}
		texture, err := deps.Textures.Texture(td)
		if err != nil {
			return nil, fmt.Errorf("texture %d (%s): %w", td.ID, td.Name, err)
		}
		if texture.SerializeID() != td.ID {
			return nil, fmt.Errorf("texture provider returned id %d for %d", texture.SerializeID(), td.ID)
		}
		if err := p.AddTexture(texture); err != nil {
			return nil, err
		}
	}

	for i, sd := range doc.Stages {
		stageInfo, err := deserializeStage(p, sd, deps)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if err := p.AddNewStage(stageInfo); err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, sd.Name, err)
		}
	}
	return p, nil
}

func deserializeStage(p *pipeline.Pipeline, sd StageDocument, deps Dependencies) (*pipeline.StageInfo, error) {
	if sd.Name == "" {
		return nil, fmt.Errorf("name: %w", ErrMissingAttribute)
	}

	config := pipeline.StageConfig{
		Width:  sd.Width,
		Height: sd.Height,
	}
	if len(sd.ClearColour) > 0 {
		if len(sd.ClearColour) != 4 {
			return nil, fmt.Errorf("stage '%s': clear_colour needs 4 components, got %d", sd.Name, len(sd.ClearColour))
		}
		copy(config.ClearColour[:], sd.ClearColour)
	}
	for _, ad := range sd.Attachments {
		attachmentType, ok := pipeline.ParseAttachmentType(ad.Type)
		if !ok {
			return nil, fmt.Errorf("stage '%s': attachment type %q: %w", sd.Name, ad.Type, ErrMissingAttribute)
		}
		texture, ok := p.Texture(ad.Texture)
		if !ok {
			return nil, fmt.Errorf("stage '%s': texture %d: %w", sd.Name, ad.Texture, ErrMissingTexture)
		}
		config.Attachments = append(config.Attachments, pipeline.Attachment{
			Type:    attachmentType,
			Texture: texture,
		})
	}

	stage, err := deps.Stages.NewStage(sd.Name, config)
	if err != nil {
		return nil, fmt.Errorf("stage '%s': %w", sd.Name, err)
	}

	stageInfo := pipeline.NewStageInfo(sd.Name, stage, sd.Clear)
	stageInfo.Config = config
	stageInfo.CameraTags = append([]string(nil), sd.CameraTags...)
	stageInfo.RenderTags = append([]string(nil), sd.RenderTags...)

	for _, name := range sd.Methods {
		method, err := deps.Registry.Method(name)
		if err != nil {
			return nil, fmt.Errorf("stage '%s': %w", sd.Name, err)
		}
		stageInfo.AddRenderMethod(method)
		if method.IsExternal() {
			ext, _ := deps.Registry.External(name)
			stageInfo.AddExternalRenderMethod(name, ext)
		}
	}
	for _, name := range sd.ExternalMethods {
		ext, ok := deps.Registry.External(name)
		if !ok {
			return nil, fmt.Errorf("stage '%s': external render method %q: %w", sd.Name, name, pipeline.ErrUnknownRenderMethod)
		}
		stageInfo.AddExternalRenderMethod(name, ext)
	}
	if sd.HighestPriority != nil {
		stageInfo.SetHighestPriority(pipeline.Priority(*sd.HighestPriority))
	}
	return stageInfo, nil
}

// Load reads, validates and deserializes the pipeline document at path.
func Load(path string, deps Dependencies) (*pipeline.Pipeline, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Deserialize(doc, deps)
	if err != nil {
		return nil, fmt.Errorf("loading pipeline %s: %w", path, err)
	}
	core.LogInfo("pipeline loaded from %s: %d stages, %d textures", path, p.StageCount(), len(p.Textures()))
	return p, nil
}

// ReadFile reads and decodes a document without building a pipeline.
func ReadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline %s: %w", path, err)
	}
	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile encodes doc to path using the codec matching its extension.
func WriteFile(path string, doc *Document) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(doc, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing pipeline %s: %w", path, err)
	}
	return nil
}
