//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the rendergraph binary into bin/.
func (Build) Binary() error {
	version, err := executeCmd("git", withArgs("describe", "--tags", "--always", "--dirty"))
	if err != nil {
		version = "dev"
	}
	ldflags := fmt.Sprintf("-X main.version=%s", trimNewline(version))
	if _, err := executeCmd("go", withArgs("build", "-ldflags", ldflags, "-o", "bin/rendergraph", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Tidies modules and vets every package.
func (Build) Check() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
