package core

import (
	"errors"
)

var (
	ErrEngineNotInitialized = errors.New("engine not initialized")
	ErrEngineShutdown       = errors.New("engine already shut down")
	ErrPipelineNotLoaded    = errors.New("no graphics pipeline loaded")
	ErrMissingConfig        = errors.New("missing configuration value")
)
