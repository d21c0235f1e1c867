package pipeline

import (
	"fmt"

	"golang.org/x/exp/slices"
)

/** @brief Execution priority of a render method. Lower values run earlier. */
type Priority uint32

/** @brief Sentinel used by a stage before any render method was added. */
const PriorityLowest Priority = 999

/** @brief Anything that can be invoked as a unit of rendering work. */
type Invoker interface {
	Invoke()
}

/** @brief Adapts a plain function to the Invoker interface. */
type InvokerFunc func()

func (f InvokerFunc) Invoke() {
	f()
}

/**
 * @brief A render method supplied from outside the built-in set, e.g. by a plugin
 * loaded at runtime. It is resolved by name like the built-in ones.
 */
type ExternalMethod interface {
	Invoker
	Name() string
	Priority() Priority
}

/** @brief A named, prioritized unit of work run inside a stage. */
type RenderMethod struct {
	name     string
	priority Priority
	invoker  Invoker
	external bool
}

func NewRenderMethod(name string, priority Priority, fn func()) RenderMethod {
	return RenderMethod{
		name:     name,
		priority: priority,
		invoker:  InvokerFunc(fn),
	}
}

func (rm RenderMethod) Name() string {
	return rm.name
}

func (rm RenderMethod) Priority() Priority {
	return rm.priority
}

func (rm RenderMethod) IsExternal() bool {
	return rm.external
}

func (rm RenderMethod) Invoke() {
	if rm.invoker != nil {
		rm.invoker.Invoke()
	}
}

const (
	RenderMethodSky                         = "renderSky"
	RenderMethodOpaqueObjects               = "renderOpaqueObjects"
	RenderMethodAnimatedObjects             = "renderAnimatedObjects"
	RenderMethodTransparentObjects          = "renderTransparentObjects"
	RenderMethodPlayerAttachmentOpaque      = "renderPlayerAttachmentOpaqueObjects"
	RenderMethodPlayerAttachmentTransparent = "renderPlayerAttachmentTransparentObjects"
	RenderMethodAllDirectionalLights        = "renderAllDirectionalLights"
	RenderMethodAllPointLights              = "renderAllPointLights"
	RenderMethodQuad                        = "renderQuad"
	RenderMethodGUITexts                    = "renderGUITexts"
	RenderMethodGUIImages                   = "renderGUIImages"
	RenderMethodEditor                      = "renderEditor"
	RenderMethodDebug                       = "renderDebug"
)

var builtinRenderMethodNames = []string{
	RenderMethodSky,
	RenderMethodOpaqueObjects,
	RenderMethodAnimatedObjects,
	RenderMethodTransparentObjects,
	RenderMethodPlayerAttachmentOpaque,
	RenderMethodPlayerAttachmentTransparent,
	RenderMethodAllDirectionalLights,
	RenderMethodAllPointLights,
	RenderMethodQuad,
	RenderMethodGUITexts,
	RenderMethodGUIImages,
	RenderMethodEditor,
	RenderMethodDebug,
}

// BuiltinRenderMethodNames returns the render methods known at build time, in declaration order.
func BuiltinRenderMethodNames() []string {
	return slices.Clone(builtinRenderMethodNames)
}

func isBuiltin(name string) bool {
	return slices.Contains(builtinRenderMethodNames, name)
}

type builtinBinding struct {
	priority Priority
	fn       func()
}

// Registry resolves render method names to invocable methods. It is built once
// through NewRegistry and never changes afterwards, so any number of pipelines
// may share it.
type Registry struct {
	names     []string
	builtins  map[string]builtinBinding
	externals map[string]ExternalMethod
}

type RegistryOption func(*Registry) error

// WithBuiltin binds an implementation to one of the built-in render method names.
func WithBuiltin(name string, priority Priority, fn func()) RegistryOption {
	return func(r *Registry) error {
		if !isBuiltin(name) {
			return fmt.Errorf("%q is not a built-in render method: %w", name, ErrUnknownRenderMethod)
		}
		if fn == nil {
			return fmt.Errorf("built-in render method %q needs an implementation", name)
		}
		r.builtins[name] = builtinBinding{priority: priority, fn: fn}
		return nil
	}
}

// WithExternal registers a plugin supplied render method. A later registration
// under the same name replaces the earlier one, the name is listed once.
func WithExternal(method ExternalMethod) RegistryOption {
	return func(r *Registry) error {
		if method == nil || method.Name() == "" {
			return fmt.Errorf("external render method requires a name")
		}
		if isBuiltin(method.Name()) {
			return fmt.Errorf("external render method %q shadows a built-in one", method.Name())
		}
		r.externals[method.Name()] = method
		if !slices.Contains(r.names, method.Name()) {
			r.names = append(r.names, method.Name())
		}
		return nil
	}
}

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		names:     BuiltinRenderMethodNames(),
		builtins:  make(map[string]builtinBinding, len(builtinRenderMethodNames)),
		externals: make(map[string]ExternalMethod),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RenderMethodNames lists built-in names followed by external ones, without duplicates.
func (r *Registry) RenderMethodNames() []string {
	return slices.Clone(r.names)
}

// Method resolves a built-in or external render method by name.
func (r *Registry) Method(name string) (RenderMethod, error) {
	if binding, ok := r.builtins[name]; ok {
		return NewRenderMethod(name, binding.priority, binding.fn), nil
	}
	if ext, ok := r.externals[name]; ok {
		return RenderMethod{
			name:     name,
			priority: ext.Priority(),
			invoker:  ext,
			external: true,
		}, nil
	}
	if isBuiltin(name) {
		return RenderMethod{}, fmt.Errorf("render method %q has no implementation bound: %w", name, ErrUnknownRenderMethod)
	}
	return RenderMethod{}, fmt.Errorf("render method %q: %w", name, ErrUnknownRenderMethod)
}

// External returns the plugin registered under name, if any.
func (r *Registry) External(name string) (ExternalMethod, bool) {
	ext, ok := r.externals[name]
	return ext, ok
}
