package document

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

type testTexture struct {
	id            uint32
	name          string
	width, height uint32
}

func (t *testTexture) SerializeID() uint32    { return t.id }
func (t *testTexture) Name() string           { return t.name }
func (t *testTexture) Size() (uint32, uint32) { return t.width, t.height }

type testTextures struct {
	byID map[uint32]*testTexture
}

func newTestTextures() *testTextures {
	return &testTextures{byID: map[uint32]*testTexture{}}
}

func (tt *testTextures) Texture(doc TextureDocument) (pipeline.Texture, error) {
	if t, ok := tt.byID[doc.ID]; ok {
		return t, nil
	}
	t := &testTexture{id: doc.ID, name: doc.Name, width: doc.Width, height: doc.Height}
	tt.byID[doc.ID] = t
	return t, nil
}

type testStage struct {
	name   string
	config pipeline.StageConfig
}

func (s *testStage) Activate(bool) {}

type testStages struct {
	created []*testStage
}

func (ts *testStages) NewStage(name string, config pipeline.StageConfig) (pipeline.Stage, error) {
	s := &testStage{name: name, config: config}
	ts.created = append(ts.created, s)
	return s, nil
}

type testExternal struct{ name string }

func (e testExternal) Name() string                { return e.name }
func (e testExternal) Priority() pipeline.Priority { return 15 }
func (e testExternal) Invoke()                     {}

func newTestRegistry(t *testing.T) *pipeline.Registry {
	t.Helper()
	noop := func() {}
	r, err := pipeline.NewRegistry(
		pipeline.WithBuiltin(pipeline.RenderMethodSky, 1, noop),
		pipeline.WithBuiltin(pipeline.RenderMethodOpaqueObjects, 10, noop),
		pipeline.WithBuiltin(pipeline.RenderMethodTransparentObjects, 20, noop),
		pipeline.WithBuiltin(pipeline.RenderMethodQuad, 5, noop),
		pipeline.WithBuiltin(pipeline.RenderMethodGUITexts, 30, noop),
		pipeline.WithBuiltin(pipeline.RenderMethodDebug, 30, noop),
		pipeline.WithExternal(testExternal{name: "vignette"}),
	)
	require.NoError(t, err)
	return r
}

func newDeps(t *testing.T) Dependencies {
	return Dependencies{
		Registry: newTestRegistry(t),
		Textures: newTestTextures(),
		Stages:   &testStages{},
	}
}

// buildPipeline creates three stages sharing one texture.
func buildPipeline(t *testing.T, deps Dependencies) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New(deps.Registry)
	shared, err := deps.Textures.Texture(TextureDocument{ID: 4, Name: "scene_colour", Width: 64, Height: 32})
	require.NoError(t, err)
	require.NoError(t, p.AddTexture(shared))

	layouts := []struct {
		name    string
		clear   bool
		methods []string
		cameras []string
		tags    []string
	}{
		{"scene", true, []string{pipeline.RenderMethodOpaqueObjects, pipeline.RenderMethodSky}, []string{"main"}, []string{"opaque", "sky"}},
		{"composite", false, []string{"vignette", pipeline.RenderMethodQuad}, []string{"main"}, []string{"quad"}},
		{"gui", true, []string{pipeline.RenderMethodGUITexts, pipeline.RenderMethodDebug}, []string{"main", "ui"}, []string{"gui", "debug"}},
	}
	for i, layout := range layouts {
		config := pipeline.StageConfig{
			Attachments: []pipeline.Attachment{{Type: pipeline.AttachmentTypeColour, Texture: shared}},
		}
		if i == 2 {
			config = pipeline.StageConfig{Width: 320, Height: 200, ClearColour: [4]float32{0, 0, 0, 1}}
		}
		stage, err := deps.Stages.NewStage(layout.name, config)
		require.NoError(t, err)
		si := pipeline.NewStageInfo(layout.name, stage, layout.clear)
		si.Config = config
		si.CameraTags = layout.cameras
		si.RenderTags = layout.tags
		for _, name := range layout.methods {
			m, err := deps.Registry.Method(name)
			require.NoError(t, err)
			si.AddRenderMethod(m)
			if m.IsExternal() {
				ext, _ := deps.Registry.External(name)
				si.AddExternalRenderMethod(name, ext)
			}
		}
		require.NoError(t, p.AddNewStage(si))
	}
	return p
}

func stageSummary(p *pipeline.Pipeline) []string {
	var out []string
	for _, si := range p.Stages() {
		var methods []string
		for _, m := range si.RenderMethods() {
			methods = append(methods, m.Name())
		}
		out = append(out, fmt.Sprintf("%s clear=%t methods=%v cams=%v tags=%v hp=%d ext=%v",
			si.Name, si.Clear, methods, si.CameraTags, pipeline.NewTagSet(si.RenderTags...).Sorted(),
			si.HighestPriority(), si.ExternalRenderMethodNames()))
	}
	return out
}

func assertSameIndex(t *testing.T, want, got pipeline.TagIndex) {
	t.Helper()
	require.Equal(t, want.Cameras(), got.Cameras())
	for _, camera := range want.Cameras() {
		require.Len(t, got[camera], len(want[camera]))
		for i := range want[camera] {
			assert.Equal(t, want[camera][i].Sorted(), got[camera][i].Sorted(), "camera %s slot %d", camera, i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			deps := newDeps(t)
			original := buildPipeline(t, deps)

			doc, err := Serialize(original)
			require.NoError(t, err)
			data, err := Encode(doc, format)
			require.NoError(t, err)

			decoded, err := Decode(data, format)
			require.NoError(t, err)

			loadDeps := newDeps(t)
			restored, err := Deserialize(decoded, loadDeps)
			require.NoError(t, err)

			assert.Equal(t, stageSummary(original), stageSummary(restored))
			assertSameIndex(t, original.CameraTagToRenderTagMap(), restored.CameraTagToRenderTagMap())

			texture, ok := restored.Texture(4)
			require.True(t, ok)
			assert.Equal(t, "scene_colour", texture.Name())
			w, h := texture.(*testTexture).Size()
			assert.Equal(t, []uint32{64, 32}, []uint32{w, h})

			created := loadDeps.Stages.(*testStages).created
			require.Len(t, created, 3)
			require.Len(t, created[0].config.Attachments, 1)
			require.Len(t, created[1].config.Attachments, 1)
			assert.Same(t, created[0].config.Attachments[0].Texture, created[1].config.Attachments[0].Texture, "texture is shared")
			assert.Equal(t, uint32(320), created[2].config.Width)
			assert.Equal(t, [4]float32{0, 0, 0, 1}, created[2].config.ClearColour)
		})
	}
}

func TestRoundTripKeepsRaisedPriority(t *testing.T) {
	deps := newDeps(t)
	original := buildPipeline(t, deps)
	original.Stages()[1].SetHighestPriority(0)

	doc, err := Serialize(original)
	require.NoError(t, err)
	restored, err := Deserialize(doc, newDeps(t))
	require.NoError(t, err)

	assert.Equal(t, pipeline.Priority(0), restored.Stages()[1].HighestPriority())
	assert.Equal(t, pipeline.Priority(1), restored.Stages()[0].HighestPriority())
}

func TestRoundTripKeepsExternalMethodsOutsideMethodList(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			deps := newDeps(t)
			stage, err := deps.Stages.NewStage("post", pipeline.StageConfig{})
			require.NoError(t, err)

			si := pipeline.NewStageInfo("post", stage, false)
			quad, err := deps.Registry.Method(pipeline.RenderMethodQuad)
			require.NoError(t, err)
			si.AddRenderMethod(quad)
			ext, ok := deps.Registry.External("vignette")
			require.True(t, ok)
			si.AddExternalRenderMethod("vignette", ext)

			original := pipeline.New(deps.Registry)
			require.NoError(t, original.AddNewStage(si))

			doc, err := Serialize(original)
			require.NoError(t, err)
			data, err := Encode(doc, format)
			require.NoError(t, err)
			assert.Contains(t, string(data), "external_methods")

			decoded, err := Decode(data, format)
			require.NoError(t, err)
			restored, err := Deserialize(decoded, newDeps(t))
			require.NoError(t, err)

			got := restored.Stages()[0]
			assert.Equal(t, []string{"vignette"}, got.ExternalRenderMethodNames())
			require.Len(t, got.RenderMethods(), 1)
			assert.Equal(t, pipeline.RenderMethodQuad, got.RenderMethods()[0].Name())
		})
	}
}

func TestDeserializeUnknownExternalMethodFails(t *testing.T) {
	doc := &Document{Stages: []StageDocument{
		{Name: "post", Methods: []string{pipeline.RenderMethodQuad}, ExternalMethods: []string{"bloom"}},
	}}
	p, err := Deserialize(doc, newDeps(t))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, pipeline.ErrUnknownRenderMethod)
}

func TestSaveAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	deps := newDeps(t)
	original := buildPipeline(t, deps)

	for _, name := range []string{"pipeline.toml", "pipeline.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, original))

		restored, err := Load(path, newDeps(t))
		require.NoError(t, err)
		assert.Equal(t, stageSummary(original), stageSummary(restored))
	}

	err := Save(filepath.Join(dir, "pipeline.xml"), original)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

const validTOML = `
version = 1

[[textures]]
id = 1
name = "scene_colour"
width = 16
height = 16

[[stages]]
name = "scene"
clear = true
methods = ["renderOpaqueObjects", "renderSky"]
camera_tags = ["main"]
render_tags = ["opaque"]

  [[stages.attachments]]
  type = "colour"
  texture = 1

[[stages]]
name = "gui"
clear = false
methods = ["renderGUITexts"]
camera_tags = ["main"]
render_tags = ["gui"]
`

func TestDecodeAndDeserializeHandWritten(t *testing.T) {
	doc, err := Decode([]byte(validTOML), FormatTOML)
	require.NoError(t, err)

	p, err := Deserialize(doc, newDeps(t))
	require.NoError(t, err)
	require.Equal(t, 2, p.StageCount())

	methods := p.Stages()[0].RenderMethods()
	require.Len(t, methods, 2)
	assert.Equal(t, pipeline.RenderMethodSky, methods[0].Name())
	// no persisted value, so the last added method wins
	assert.Equal(t, pipeline.Priority(1), p.Stages()[0].HighestPriority())
	assert.Len(t, p.RenderTagsFor("main"), 2)
}

func TestDeserializeUnknownMethodFails(t *testing.T) {
	doc := &Document{Stages: []StageDocument{
		{Name: "a", Methods: []string{pipeline.RenderMethodSky}},
		{Name: "b", Methods: []string{"renderPluginThatIsNotLoaded"}},
	}}
	stages := &testStages{}
	deps := newDeps(t)
	deps.Stages = stages

	p, err := Deserialize(doc, deps)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, pipeline.ErrUnknownRenderMethod)
}

func TestDeserializeMissingTextureFails(t *testing.T) {
	doc := &Document{Stages: []StageDocument{
		{Name: "a", Methods: []string{pipeline.RenderMethodSky}, Attachments: []AttachmentDocument{{Type: "colour", Texture: 99}}},
	}}
	p, err := Deserialize(doc, newDeps(t))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrMissingTexture)
}

func TestDeserializeMissingAttributes(t *testing.T) {
	_, err := Deserialize(&Document{Stages: []StageDocument{{Methods: []string{}}}}, newDeps(t))
	assert.ErrorIs(t, err, ErrMissingAttribute)

	_, err = Deserialize(&Document{Textures: []TextureDocument{{ID: 1}}}, newDeps(t))
	assert.ErrorIs(t, err, ErrMissingAttribute)

	_, err = Deserialize(&Document{}, Dependencies{})
	assert.ErrorIs(t, err, ErrMissingAttribute)

	_, err = Deserialize(&Document{Stages: []StageDocument{
		{Name: "a", Attachments: []AttachmentDocument{{Type: "stencil", Texture: 1}}},
	}}, newDeps(t))
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestDecodeRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing clear": `
[[stages]]
name = "a"
methods = []
`,
		"missing stages": `version = 1`,
		"attachment without texture": `
[[stages]]
name = "a"
clear = true
methods = []
  [[stages.attachments]]
  type = "colour"
`,
		"bad clear colour": `
[[stages]]
name = "a"
clear = true
methods = []
clear_colour = [1.0, 0.0]
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data), FormatTOML)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	data := `
version: 1
stages:
  - name: scene
    clear: true
    methods: [renderSky]
    camera_tags: [main]
    render_tags: [sky]
`
	doc, err := Decode([]byte(data), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Stages, 1)
	assert.Equal(t, []string{"sky"}, doc.Stages[0].RenderTags)

	_, err = Decode([]byte(""), FormatYAML)
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("a/b/pipeline.TOML")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, f)

	f, err = FormatFromPath("pipeline.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("pipeline.json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
