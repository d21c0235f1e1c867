package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rendergraph/engine/pipeline/document"
	"github.com/spaghettifunk/rendergraph/engine/systems"
)

func newManager(t *testing.T, base string, workers int) *AssetManager {
	t.Helper()
	var jobs *systems.JobSystem
	if workers > 0 {
		js, err := systems.NewJobSystem(workers, workers)
		require.NoError(t, err)
		t.Cleanup(func() { js.Shutdown() })
		jobs = js
	}
	am, err := NewAssetManager(base, jobs)
	require.NoError(t, err)
	t.Cleanup(func() { am.Shutdown() })
	return am
}

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCreateTexture(t *testing.T) {
	am := newManager(t, "", 0)

	a, err := am.CreateTexture("shadow_map", 8, 8)
	require.NoError(t, err)
	b, err := am.CreateTexture("", 4, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.SerializeID(), b.SerializeID())
	assert.NotEmpty(t, b.Name())
	w, h := b.Size()
	assert.Equal(t, []uint32{4, 2}, []uint32{w, h})

	_, err = am.CreateTexture("shadow_map", 8, 8)
	assert.Error(t, err)
	_, err = am.CreateTexture("zero", 0, 8)
	assert.Error(t, err)

	got, ok := am.TextureByName("shadow_map")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestTextureFromDocumentIsShared(t *testing.T) {
	am := newManager(t, "", 0)

	first, err := am.Texture(document.TextureDocument{ID: 12, Name: "hdr", Width: 16, Height: 8})
	require.NoError(t, err)
	second, err := am.Texture(document.TextureDocument{ID: 12, Name: "hdr", Width: 16, Height: 8})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint32(12), first.SerializeID())

	// a fresh id must not collide with the reserved one
	created, err := am.CreateTexture("other", 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(12), created.SerializeID())

	_, err = am.Texture(document.TextureDocument{ID: 13, Name: "sizeless"})
	assert.Error(t, err)
}

func TestTextureWithLargeSerializeID(t *testing.T) {
	am := newManager(t, "", 0)

	tex, err := am.Texture(document.TextureDocument{ID: 50_000_000, Name: "far", Width: 2, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, uint32(50_000_000), tex.SerializeID())

	byID, ok := am.TextureByID(50_000_000)
	require.True(t, ok)
	assert.Same(t, tex, byID)

	created, err := am.CreateTexture("near", 1, 1)
	require.NoError(t, err)
	assert.Less(t, created.SerializeID(), uint32(50_000_000))

	require.NoError(t, am.ReleaseTexture(50_000_000))
	_, ok = am.TextureByName("far")
	assert.False(t, ok)
}

func TestPreloadLoadsFilesInParallel(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 3, 2, color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "b.png"), 5, 5, color.RGBA{G: 255, A: 255})

	am := newManager(t, dir, 2)
	err := am.Preload([]document.TextureDocument{
		{ID: 1, Name: "a", Path: "a.png"},
		{ID: 2, Name: "b", Path: filepath.Join(dir, "b.png")},
		{ID: 3, Name: "target", Width: 4, Height: 4},
	})
	require.NoError(t, err)

	a, ok := am.TextureByID(1)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, a.Image().RGBAAt(1, 1))
	assert.Equal(t, "a.png", a.SourcePath())

	b, ok := am.TextureByID(2)
	require.True(t, ok)
	w, h := b.Size()
	assert.Equal(t, []uint32{5, 5}, []uint32{w, h})

	err = am.Preload([]document.TextureDocument{{ID: 9, Name: "missing", Path: "nope.png"}})
	assert.Error(t, err)
	_, ok = am.TextureByID(9)
	assert.False(t, ok)
}

func TestReleaseTexture(t *testing.T) {
	am := newManager(t, "", 0)
	tex, err := am.CreateTexture("tmp", 1, 1)
	require.NoError(t, err)

	require.NoError(t, am.ReleaseTexture(tex.SerializeID()))
	_, ok := am.TextureByName("tmp")
	assert.False(t, ok)
	assert.Error(t, am.ReleaseTexture(tex.SerializeID()))
}

func TestReloadTextureInPlace(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "albedo.png"), 2, 2, color.RGBA{R: 255, A: 255})

	am := newManager(t, dir, 0)
	tex, err := am.Texture(document.TextureDocument{ID: 3, Name: "albedo", Path: "albedo.png"})
	require.NoError(t, err)
	pixels := tex.(*Texture).Image()

	writePNG(t, filepath.Join(dir, "albedo.png"), 2, 2, color.RGBA{B: 255, A: 255})
	require.NoError(t, am.ReloadTexture(3))
	assert.Same(t, pixels, tex.(*Texture).Image())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, pixels.RGBAAt(1, 1))
	assert.Equal(t, uint32(1), tex.(*Texture).Generation())

	writePNG(t, filepath.Join(dir, "albedo.png"), 4, 4, color.RGBA{G: 255, A: 255})
	assert.Error(t, am.ReloadTexture(3))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, pixels.RGBAAt(1, 1))

	target, err := am.CreateTexture("target", 1, 1)
	require.NoError(t, err)
	assert.Error(t, am.ReloadTexture(target.SerializeID()))
	assert.NoError(t, am.WatchTexture(target.SerializeID()))
	assert.Error(t, am.ReloadTexture(99))
}

func TestWatchNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n"), 0644))

	am := newManager(t, dir, 0)
	var hits int32
	require.NoError(t, am.Watch(path, func(string) { atomic.AddInt32(&hits, 1) }))

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("version = 2\n"), 0644))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) > 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatchAfterShutdown(t *testing.T) {
	am := newManager(t, "", 0)
	require.NoError(t, am.Shutdown())
	assert.ErrorIs(t, am.Watch("pipeline.toml", func(string) {}), ErrAssetManagerClosed)
	assert.NoError(t, am.Shutdown())
}
