package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/rendergraph/engine/assets"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
	"github.com/spaghettifunk/rendergraph/engine/pipeline/document"
	"github.com/spaghettifunk/rendergraph/engine/renderer/software"
	"github.com/spaghettifunk/rendergraph/engine/systems"
)

type EngineStage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized EngineStage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

func (s EngineStage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shut down"
	default:
		return fmt.Sprintf("EngineStage(%d)", uint8(s))
	}
}

type Engine struct {
	// read by the watcher goroutine through Reload
	currentStage atomic.Uint32
	config       *ApplicationConfig
	gameInstance *Game
	clock        *core.Clock
	lastTime     float64
	frameCount   uint64

	jobs         *systems.JobSystem
	assetManager *assets.AssetManager
	device       *software.Device
	registry     *pipeline.Registry
	renderCtx    *RenderContext

	pipeline *pipeline.Pipeline

	// pending is written by Reload and swapped in at the next frame boundary.
	pendingMutex sync.Mutex
	pending      *pipeline.Pipeline
}

func New(cfg *ApplicationConfig, g *Game) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config: %w", core.ErrMissingConfig)
	}
	if g == nil {
		return nil, fmt.Errorf("engine: game instance is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		config:       cfg,
		gameInstance: g,
		clock:        core.NewClock(),
	}, nil
}

func (e *Engine) stage() EngineStage {
	return EngineStage(e.currentStage.Load())
}

func (e *Engine) setStage(stage EngineStage) {
	e.currentStage.Store(uint32(stage))
}

func (e *Engine) acceptsFrames() bool {
	stage := e.stage()
	return stage == EngineStageInitialized || stage == EngineStageRunning
}

func (e *Engine) Initialize() error {
	if e.stage() == EngineStageShutdown {
		return core.ErrEngineShutdown
	}
	if !e.currentStage.CompareAndSwap(uint32(EngineStageUninitialized), uint32(EngineStageInitializing)) {
		return fmt.Errorf("engine: cannot initialize while %s", e.stage())
	}

	level, err := core.ParseLogLevel(e.config.LogLevel)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// initialize subsystems
	e.jobs, err = systems.NewJobSystem(e.config.Workers, e.config.Workers*4)
	if err != nil {
		return err
	}
	e.assetManager, err = assets.NewAssetManager(e.config.AssetsDir, e.jobs)
	if err != nil {
		return err
	}
	e.device = software.NewDevice(int(e.config.Width), int(e.config.Height))
	e.renderCtx = &RenderContext{
		Device:  e.device,
		Assets:  e.assetManager,
		Camera:  e.config.Camera,
		visible: pipeline.TagSet{},
	}

	var options []pipeline.RegistryOption
	if e.gameInstance.FnRenderMethods != nil {
		options, err = e.gameInstance.FnRenderMethods(e.renderCtx)
		if err != nil {
			return fmt.Errorf("engine: binding render methods: %w", err)
		}
	}
	e.registry, err = pipeline.NewRegistry(options...)
	if err != nil {
		return err
	}

	e.pipeline, err = e.buildPipeline(e.config.Pipeline)
	if err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.renderCtx); err != nil {
			return err
		}
	}

	if e.config.Watch {
		if err := e.assetManager.Watch(e.config.Pipeline, e.onPipelineChanged); err != nil {
			return err
		}
		if err := e.watchTextures(e.pipeline); err != nil {
			return err
		}
		core.LogInfo("watching '%s' for changes", e.config.Pipeline)
	}

	e.clock.Start()
	e.lastTime = 0
	e.setStage(EngineStageInitialized)
	core.LogInfo("%s initialized: %d stages, %dx%d", e.config.Name, e.pipeline.StageCount(), e.config.Width, e.config.Height)
	return nil
}

// watchTextures reloads the file backed textures of p when their source changes.
func (e *Engine) watchTextures(p *pipeline.Pipeline) error {
	for _, texture := range p.Textures() {
		if err := e.assetManager.WatchTexture(texture.SerializeID()); err != nil {
			return err
		}
	}
	return nil
}

// buildPipeline loads a complete pipeline from path without touching the live one.
func (e *Engine) buildPipeline(path string) (*pipeline.Pipeline, error) {
	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := e.assetManager.Preload(doc.Textures); err != nil {
		return nil, err
	}
	return document.Deserialize(doc, document.Dependencies{
		Registry: e.registry,
		Textures: e.assetManager,
		Stages:   e.device,
	})
}

// Reload builds a new pipeline from path. It replaces the live one at the start
// of the next frame; on failure the live pipeline is kept.
func (e *Engine) Reload(path string) error {
	if !e.acceptsFrames() {
		return core.ErrEngineNotInitialized
	}
	p, err := e.buildPipeline(path)
	if err != nil {
		core.LogError("pipeline reload from '%s' failed, keeping the current one: %s", path, err.Error())
		return err
	}
	if e.config.Watch {
		if err := e.watchTextures(p); err != nil {
			core.LogError("pipeline reload from '%s' failed, keeping the current one: %s", path, err.Error())
			return err
		}
	}

	e.pendingMutex.Lock()
	e.pending = p
	e.pendingMutex.Unlock()
	core.LogInfo("pipeline reloaded from '%s', %d stages", path, p.StageCount())
	return nil
}

func (e *Engine) onPipelineChanged(path string) {
	// the error is already logged
	_ = e.Reload(path)
}

func (e *Engine) swapPending() {
	e.pendingMutex.Lock()
	defer e.pendingMutex.Unlock()
	if e.pending != nil {
		e.pipeline = e.pending
		e.pending = nil
	}
}

// Frame renders a single frame: update the game, run every stage, then the
// overlay.
func (e *Engine) Frame() error {
	if !e.acceptsFrames() {
		return core.ErrEngineNotInitialized
	}
	e.swapPending()
	if e.pipeline == nil {
		return core.ErrPipelineNotLoaded
	}

	e.clock.Update()
	var currentTime float64 = e.clock.Elapsed()
	var delta float64 = (currentTime - e.lastTime)

	e.renderCtx.Frame = e.frameCount
	e.renderCtx.DeltaTime = delta
	e.renderCtx.visible = e.visibleTags(e.renderCtx.Camera)

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update failed: %w", err)
		}
	}

	e.pipeline.Render()

	if e.gameInstance.FnOverlay != nil {
		if err := e.InjectOverlay(func() error {
			return e.gameInstance.FnOverlay(e.renderCtx)
		}); err != nil {
			return fmt.Errorf("game overlay failed: %w", err)
		}
	}

	e.clock.Update()
	core.MetricsUpdate(e.clock.Elapsed() - currentTime)
	e.lastTime = currentTime
	e.frameCount++
	return nil
}

func (e *Engine) visibleTags(camera string) pipeline.TagSet {
	visible := pipeline.TagSet{}
	for _, set := range e.pipeline.RenderTagsFor(camera) {
		for tag := range set {
			visible[tag] = struct{}{}
		}
	}
	return visible
}

// InjectOverlay binds the last rendered stage again and runs fn on top of it.
func (e *Engine) InjectOverlay(fn func() error) error {
	if e.pipeline == nil {
		return core.ErrPipelineNotLoaded
	}
	if err := e.pipeline.ReActivateLastStage(); err != nil {
		return err
	}
	return fn()
}

// Run renders frames until ctx is cancelled or the configured frame count is
// reached.
func (e *Engine) Run(ctx context.Context) error {
	if !e.currentStage.CompareAndSwap(uint32(EngineStageInitialized), uint32(EngineStageRunning)) {
		return core.ErrEngineNotInitialized
	}
	defer e.currentStage.CompareAndSwap(uint32(EngineStageRunning), uint32(EngineStageInitialized))

	for {
		select {
		case <-ctx.Done():
			core.LogInfo("run cancelled after %d frames", e.frameCount)
			return nil
		default:
		}

		if err := e.Frame(); err != nil {
			core.LogError(err.Error())
			return err
		}

		if e.config.MaxFrames > 0 && e.frameCount >= e.config.MaxFrames {
			stats := core.MetricsSnapshot()
			core.LogInfo("rendered %d frames (%.0f fps, %.3f ms avg)", stats.TotalFrames, stats.FPS, stats.FrameTimeMS)
			return nil
		}
	}
}

func (e *Engine) Shutdown() error {
	if e.stage() == EngineStageShutdown {
		return nil
	}
	e.setStage(EngineStageShuttingDown)

	var err error
	if e.gameInstance.FnShutdown != nil {
		err = e.gameInstance.FnShutdown()
	}
	if e.assetManager != nil {
		if aerr := e.assetManager.Shutdown(); aerr != nil && err == nil {
			err = aerr
		}
	}
	if e.jobs != nil {
		if jerr := e.jobs.Shutdown(); jerr != nil && err == nil {
			err = jerr
		}
	}
	e.setStage(EngineStageShutdown)
	return err
}

func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

func (e *Engine) Device() *software.Device {
	return e.device
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) CurrentStage() EngineStage {
	return e.stage()
}

func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

func (e *Engine) Config() *ApplicationConfig {
	return e.config
}
