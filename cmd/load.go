package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/assets"
	"github.com/spaghettifunk/rendergraph/engine/pipeline"
	"github.com/spaghettifunk/rendergraph/engine/pipeline/document"
	"github.com/spaghettifunk/rendergraph/engine/renderer/software"
	"github.com/spaghettifunk/rendergraph/testbed"
)

// loadDocument deserializes the document at path against the render methods
// of the testbed game, the same way the engine does at startup.
func loadDocument(path string) (*document.Document, *pipeline.Pipeline, error) {
	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	am, err := assets.NewAssetManager(filepath.Dir(path), nil)
	if err != nil {
		return nil, nil, err
	}
	defer am.Shutdown()

	device := software.NewDevice(1, 1)
	tg, err := testbed.NewTestGame()
	if err != nil {
		return nil, nil, err
	}
	options, err := tg.RenderMethods(&engine.RenderContext{Device: device, Assets: am})
	if err != nil {
		return nil, nil, err
	}
	registry, err := pipeline.NewRegistry(options...)
	if err != nil {
		return nil, nil, err
	}

	p, err := document.Deserialize(doc, document.Dependencies{
		Registry: registry,
		Textures: am,
		Stages:   device,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, p, nil
}
