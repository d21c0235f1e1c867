//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Renders the testbed headless and writes the last frame next to its config.
func (Run) Testbed() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run testbed...")
	if _, err := executeCmd("bin/rendergraph", withArgs("run", "--config", "testbed/engine.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Prints the stages and the camera tag index of the sample pipeline.
func (Run) Inspect() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/rendergraph", withArgs("inspect", "testbed/assets/pipeline.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
