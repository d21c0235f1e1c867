package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/rendergraph/engine/assets/loaders"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
	"github.com/spaghettifunk/rendergraph/engine/pipeline/document"
	"github.com/spaghettifunk/rendergraph/engine/systems"
)

var ErrAssetManagerClosed = errors.New("asset manager already closed")

type AssetManager struct {
	basePath string
	textures map[uint32]*Texture
	names    map[string]uint32
	ids      *core.Identifier
	loader   Loader
	jobs     *systems.JobSystem

	fonts      map[string]*Font
	fontLoader Loader

	mutex sync.RWMutex

	done      chan struct{}
	fsnotify  *fsnotify.Watcher
	isClosed  bool
	started   bool
	watches   map[string][]func(path string)
	watchDirs map[string]bool

	// textures with a reload callback registered
	watchedTextures map[*Texture]bool
}

// NewAssetManager resolves relative texture paths against basePath. jobs may be
// nil, textures are then preloaded sequentially.
func NewAssetManager(basePath string, jobs *systems.JobSystem) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		basePath:   basePath,
		textures:   make(map[uint32]*Texture),
		names:      make(map[string]uint32),
		ids:        core.NewIdentifier(),
		loader:     &loaders.TextureLoader{},
		fonts:      make(map[string]*Font),
		fontLoader: &loaders.BitmapFontLoader{},
		jobs:       jobs,
		fsnotify:   fsWatch,
		done:       make(chan struct{}),
		watches:    make(map[string][]func(string)),
		watchDirs:  make(map[string]bool),

		watchedTextures: make(map[*Texture]bool),
	}, nil
}

// CreateTexture allocates a blank, writeable texture with a fresh serialize id.
// An empty name gets a generated one.
func (am *AssetManager) CreateTexture(name string, width, height uint32) (*Texture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture '%s' needs a non zero size, got %dx%d", name, width, height)
	}
	if name == "" {
		name = uuid.New().String()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	if _, ok := am.names[name]; ok {
		return nil, fmt.Errorf("texture named '%s' already exists", name)
	}
	t := &Texture{
		name:   name,
		width:  width,
		height: height,
		pixels: image.NewRGBA(image.Rect(0, 0, int(width), int(height))),
	}
	t.id = am.ids.AquireNewID(t)
	am.register(t)
	return t, nil
}

// Texture implements document.TextureProvider. A texture already known under
// the id is shared, otherwise it is loaded from its path or allocated blank.
func (am *AssetManager) Texture(doc document.TextureDocument) (pipeline.Texture, error) {
	return am.acquire(doc)
}

func (am *AssetManager) acquire(doc document.TextureDocument) (*Texture, error) {
	am.mutex.RLock()
	existing, ok := am.textures[doc.ID]
	am.mutex.RUnlock()
	if ok {
		if existing.name != doc.Name {
			core.LogWarn("texture %d requested as '%s' but registered as '%s'", doc.ID, doc.Name, existing.name)
		}
		return existing, nil
	}

	t := &Texture{
		id:   doc.ID,
		name: doc.Name,
		path: doc.Path,
	}
	if t.name == "" {
		t.name = uuid.New().String()
	}
	if doc.Path != "" {
		res, err := am.loader.Load(am.resolve(doc.Path))
		if err != nil {
			return nil, err
		}
		t.pixels = res.Data.(*image.RGBA)
	} else {
		w, h := doc.Width, doc.Height
		if w == 0 || h == 0 {
			return nil, fmt.Errorf("texture %d (%s) has neither a path nor a size", doc.ID, doc.Name)
		}
		t.pixels = image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	}
	b := t.pixels.Bounds()
	t.width, t.height = uint32(b.Dx()), uint32(b.Dy())

	am.mutex.Lock()
	defer am.mutex.Unlock()
	// someone else may have won the race while we were loading
	if winner, ok := am.textures[doc.ID]; ok {
		return winner, nil
	}
	if err := am.ids.Reserve(doc.ID, t); err != nil {
		return nil, err
	}
	am.register(t)
	core.LogDebug("texture %d '%s' acquired (%dx%d)", t.id, t.name, t.width, t.height)
	return t, nil
}

func (am *AssetManager) register(t *Texture) {
	am.textures[t.id] = t
	am.names[t.name] = t.id
}

func (am *AssetManager) resolve(path string) string {
	if filepath.IsAbs(path) || am.basePath == "" {
		return path
	}
	return filepath.Join(am.basePath, path)
}

// Preload acquires every texture of docs, loading files in parallel on the job system.
func (am *AssetManager) Preload(docs []document.TextureDocument) error {
	if am.jobs == nil {
		for _, doc := range docs {
			if _, err := am.acquire(doc); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := make([]systems.Job, 0, len(docs))
	for _, doc := range docs {
		doc := doc
		jobs = append(jobs, systems.Job{
			Name: fmt.Sprintf("texture:%d:%s", doc.ID, doc.Name),
			Run: func() error {
				_, err := am.acquire(doc)
				return err
			},
		})
	}
	return am.jobs.RunAll(jobs)
}

func (am *AssetManager) TextureByID(id uint32) (*Texture, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	t, ok := am.textures[id]
	return t, ok
}

func (am *AssetManager) TextureByName(name string) (*Texture, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	id, ok := am.names[name]
	if !ok {
		return nil, false
	}
	return am.textures[id], true
}

// LoadFont reads a bitmap font descriptor and its pages and registers the
// font under name. Loading a name twice returns the first font.
func (am *AssetManager) LoadFont(name, path string) (*Font, error) {
	if font, ok := am.FontByName(name); ok {
		return font, nil
	}
	res, err := am.fontLoader.Load(am.resolve(path))
	if err != nil {
		return nil, err
	}
	font := &Font{name: name, path: path, data: res.Data.(*loaders.BitmapFontData)}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if winner, ok := am.fonts[name]; ok {
		return winner, nil
	}
	am.fonts[name] = font
	core.LogDebug("font '%s' loaded from %s (%s, %d glyphs)", name, path, font.Face(), len(font.data.Glyphs))
	return font, nil
}

func (am *AssetManager) FontByName(name string) (*Font, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	font, ok := am.fonts[name]
	return font, ok
}

// ReleaseTexture drops the manager reference. Pipelines holding the texture keep it alive.
func (am *AssetManager) ReleaseTexture(id uint32) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	t, ok := am.textures[id]
	if !ok {
		return fmt.Errorf("texture %d is not registered", id)
	}
	delete(am.textures, id)
	delete(am.names, t.name)
	return am.ids.ReleaseID(id)
}

// ReloadTexture reads the source file of a texture again. Pixels are replaced
// in place so stages drawing into or from the texture keep their target; the
// size must not change.
func (am *AssetManager) ReloadTexture(id uint32) error {
	am.mutex.RLock()
	t, ok := am.textures[id]
	am.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("texture %d is not registered", id)
	}
	if t.path == "" {
		return fmt.Errorf("texture %d (%s) has no source file", id, t.name)
	}

	res, err := am.loader.Load(am.resolve(t.path))
	if err != nil {
		return err
	}
	defer am.loader.Unload(res)

	src := res.Data.(*image.RGBA)
	if src.Bounds().Size() != t.pixels.Bounds().Size() {
		return fmt.Errorf("texture %d (%s) changed size from %v to %v", id, t.name, t.pixels.Bounds().Size(), src.Bounds().Size())
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	draw.Draw(t.pixels, t.pixels.Bounds(), src, src.Bounds().Min, draw.Src)
	generation := t.generation.Add(1)
	core.LogDebug("texture %d '%s' reloaded, generation %d", t.id, t.name, generation)
	return nil
}

// WatchTexture reloads the texture every time its source file changes.
func (am *AssetManager) WatchTexture(id uint32) error {
	am.mutex.Lock()
	t, ok := am.textures[id]
	if !ok {
		am.mutex.Unlock()
		return fmt.Errorf("texture %d is not registered", id)
	}
	if t.path == "" || am.watchedTextures[t] {
		am.mutex.Unlock()
		return nil
	}
	am.watchedTextures[t] = true
	am.mutex.Unlock()

	err := am.Watch(am.resolve(t.path), func(string) {
		if err := am.ReloadTexture(id); err != nil {
			core.LogError(err.Error())
		}
	})
	if err != nil {
		am.mutex.Lock()
		delete(am.watchedTextures, t)
		am.mutex.Unlock()
	}
	return err
}

// Watch calls onChange every time the file at path is written or re-created.
func (am *AssetManager) Watch(path string, onChange func(path string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return ErrAssetManagerClosed
	}

	// watch the directory, editors often replace files instead of writing them
	dir := filepath.Dir(abs)
	if !am.watchDirs[dir] {
		if err := am.fsnotify.Add(dir); err != nil {
			return err
		}
		am.watchDirs[dir] = true
	}
	am.watches[abs] = append(am.watches[abs], onChange)

	if !am.started {
		am.started = true
		go am.start()
	}
	return nil
}

func (am *AssetManager) start() {
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleFileEvent(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	if s, err := os.Stat(abs); err != nil || s.IsDir() {
		return
	}

	am.mutex.RLock()
	callbacks := append([]func(string){}, am.watches[abs]...)
	am.mutex.RUnlock()

	for _, cb := range callbacks {
		cb(abs)
	}
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	return am.fsnotify.Close()
}
