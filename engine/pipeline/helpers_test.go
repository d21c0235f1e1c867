package pipeline

import "fmt"

type recorder struct {
	calls []string
}

func (r *recorder) record(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

type recordingStage struct {
	name string
	rec  *recorder
}

func (s *recordingStage) Activate(clear bool) {
	s.rec.record("%s.activate(%t)", s.name, clear)
}

func recordingMethod(rec *recorder, name string, priority Priority) RenderMethod {
	return NewRenderMethod(name, priority, func() {
		rec.record("%s", name)
	})
}

type fakeTexture struct {
	id   uint32
	name string
}

func (t *fakeTexture) SerializeID() uint32 { return t.id }
func (t *fakeTexture) Name() string        { return t.name }

type fakeExternal struct {
	name     string
	priority Priority
	invoked  int
}

func (e *fakeExternal) Name() string       { return e.name }
func (e *fakeExternal) Priority() Priority { return e.priority }
func (e *fakeExternal) Invoke()            { e.invoked++ }
