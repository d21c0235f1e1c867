package pipeline

import "errors"

var (
	ErrNoActiveStage       = errors.New("no active stage, render has not run yet")
	ErrUnknownRenderMethod = errors.New("unknown render method")
	ErrNilStage            = errors.New("stage info requires a stage")
	ErrDuplicateTexture    = errors.New("texture serialize id already used in pipeline")
	ErrDuplicateProgram    = errors.New("program name already used in pipeline")
)
