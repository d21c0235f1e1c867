package pipeline

import (
	"fmt"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

// Pipeline owns the ordered stage sequence, the texture pool and the camera
// tag index. Stages are only ever appended; once the first frame rendered the
// topology is treated as frozen.
type Pipeline struct {
	registry                *Registry
	pipelineStages          []*StageInfo
	textures                []Texture
	programs                []Program
	cameraTagToRenderTagMap TagIndex
	// position of the stage activated last, -1 before the first frame.
	lastStage int
}

func New(registry *Registry) *Pipeline {
	return &Pipeline{
		registry:                registry,
		cameraTagToRenderTagMap: make(TagIndex),
		lastStage:               -1,
	}
}

func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// RenderMethodNames lists the names the pipeline registry can resolve.
func (p *Pipeline) RenderMethodNames() []string {
	if p.registry == nil {
		return BuiltinRenderMethodNames()
	}
	return p.registry.RenderMethodNames()
}

// AddNewStage appends a stage and extends the tag index with one render tag
// set for every camera tag the stage declares.
func (p *Pipeline) AddNewStage(stageInfo *StageInfo) error {
	if stageInfo == nil || stageInfo.Stage == nil {
		return ErrNilStage
	}

	seen := make(map[string]struct{}, len(stageInfo.CameraTags))
	for _, cameraTag := range stageInfo.CameraTags {
		if _, ok := seen[cameraTag]; ok {
			continue
		}
		seen[cameraTag] = struct{}{}

		renderTags := NewTagSet(stageInfo.RenderTags...)
		entry, ok := p.cameraTagToRenderTagMap[cameraTag]
		if !ok || len(entry) == 0 {
			p.cameraTagToRenderTagMap[cameraTag] = []TagSet{renderTags}
			continue
		}
		// there is already a camera entry
		p.cameraTagToRenderTagMap[cameraTag] = append(entry, renderTags)
	}
	p.pipelineStages = append(p.pipelineStages, stageInfo)

	core.LogDebug("stage '%s' appended at position %d (methods=%d, cameras=%v, tags=%v)",
		stageInfo.Name, len(p.pipelineStages)-1, len(stageInfo.renderMethods), stageInfo.CameraTags, stageInfo.RenderTags)
	return nil
}

func (p *Pipeline) Stages() []*StageInfo {
	return p.pipelineStages
}

func (p *Pipeline) StageCount() int {
	return len(p.pipelineStages)
}

func (p *Pipeline) Stage(index int) (*StageInfo, bool) {
	if index < 0 || index >= len(p.pipelineStages) {
		return nil, false
	}
	return p.pipelineStages[index], true
}

// AddTexture puts a texture in the pipeline pool. Serialize ids must be unique.
func (p *Pipeline) AddTexture(texture Texture) error {
	if _, ok := p.Texture(texture.SerializeID()); ok {
		return fmt.Errorf("texture '%s' with id %d: %w", texture.Name(), texture.SerializeID(), ErrDuplicateTexture)
	}
	p.textures = append(p.textures, texture)
	return nil
}

// Texture looks a texture up by serialize id. A miss is not an error.
func (p *Pipeline) Texture(serializeID uint32) (Texture, bool) {
	for _, texture := range p.textures {
		if texture.SerializeID() == serializeID {
			return texture, true
		}
	}
	return nil, false
}

func (p *Pipeline) Textures() []Texture {
	return p.textures
}

// AddProgram puts a program in the pipeline pool. Names must be unique.
func (p *Pipeline) AddProgram(program Program) error {
	if _, ok := p.Program(program.Name()); ok {
		return fmt.Errorf("program '%s': %w", program.Name(), ErrDuplicateProgram)
	}
	p.programs = append(p.programs, program)
	return nil
}

// Program looks a program up by name. A miss is not an error.
func (p *Pipeline) Program(name string) (Program, bool) {
	for _, program := range p.programs {
		if program.Name() == name {
			return program, true
		}
	}
	return nil, false
}

func (p *Pipeline) Programs() []Program {
	return p.programs
}

// Render runs every stage in insertion order: activate the target, then each
// render method in priority order.
func (p *Pipeline) Render() {
	for i, stageInfo := range p.pipelineStages {
		p.lastStage = i
		stageInfo.Stage.Activate(stageInfo.Clear)
		stageInfo.render()
	}
}

// ReActivateLastStage binds the target of the stage that ran last again,
// without clearing it and without running its methods. It is meant for code
// that changes render state after the frame, like an editor overlay.
func (p *Pipeline) ReActivateLastStage() error {
	if p.lastStage < 0 {
		core.LogError("reactivate requested before any stage was rendered")
		return ErrNoActiveStage
	}
	p.pipelineStages[p.lastStage].Stage.Activate(false)
	return nil
}

// LastStage returns the stage activated most recently, if a frame has run.
func (p *Pipeline) LastStage() (*StageInfo, bool) {
	if p.lastStage < 0 {
		return nil, false
	}
	return p.pipelineStages[p.lastStage], true
}

// CameraTagToRenderTagMap returns a copy of the tag index, for tooling.
func (p *Pipeline) CameraTagToRenderTagMap() TagIndex {
	return p.cameraTagToRenderTagMap.clone()
}

// RenderTagsFor returns the per stage render tag sets of a camera. The result
// is shared with the pipeline and must not be modified; culling code calls it
// once per frame.
func (p *Pipeline) RenderTagsFor(cameraTag string) []TagSet {
	return p.cameraTagToRenderTagMap[cameraTag]
}

// IsRenderedBy reports whether any stage of the camera renders renderTag.
func (p *Pipeline) IsRenderedBy(cameraTag, renderTag string) bool {
	for _, set := range p.cameraTagToRenderTagMap[cameraTag] {
		if set.Has(renderTag) {
			return true
		}
	}
	return false
}
