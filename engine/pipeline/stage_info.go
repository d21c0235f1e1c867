package pipeline

import "golang.org/x/exp/slices"

/**
 * @brief Binds a stage to its ordered render methods and its camera/render tag filters.
 */
type StageInfo struct {
	/** @brief Label used in logs and persisted documents. */
	Name string
	/** @brief The rendering pass driven by this entry. Shared, never owned exclusively. */
	Stage Stage
	/** @brief Whether activating the stage clears its target first. */
	Clear bool
	/** @brief The cameras this stage is relevant to. */
	CameraTags []string
	/** @brief The object categories this stage renders. */
	RenderTags []string
	/** @brief The target description the stage was created from. */
	Config StageConfig
	/** @brief Programs referenced by this stage, owned by the pipeline pool. */
	Programs []Program

	highestPriority       Priority
	prioritySet           bool
	renderMethods         []RenderMethod
	externalRenderMethods map[string]ExternalMethod
}

func NewStageInfo(name string, stage Stage, clear bool) *StageInfo {
	return &StageInfo{
		Name:                  name,
		Stage:                 stage,
		Clear:                 clear,
		externalRenderMethods: make(map[string]ExternalMethod),
	}
}

// AddRenderMethod inserts method before the first one with a strictly greater
// priority, so equal priorities keep their insertion order. The highest priority
// always becomes the priority of the method added last.
func (si *StageInfo) AddRenderMethod(method RenderMethod) {
	idx := slices.IndexFunc(si.renderMethods, func(rm RenderMethod) bool {
		return rm.priority > method.priority
	})
	if idx < 0 {
		si.renderMethods = append(si.renderMethods, method)
	} else {
		si.renderMethods = slices.Insert(si.renderMethods, idx, method)
	}
	si.highestPriority = method.priority
	si.prioritySet = true
}

// AddExternalRenderMethod registers a plugin method under name, replacing any previous one.
func (si *StageInfo) AddExternalRenderMethod(name string, method ExternalMethod) {
	if si.externalRenderMethods == nil {
		si.externalRenderMethods = make(map[string]ExternalMethod)
	}
	si.externalRenderMethods[name] = method
}

// HighestPriority is PriorityLowest until a method is added or the priority is set.
func (si *StageInfo) HighestPriority() Priority {
	if !si.prioritySet {
		return PriorityLowest
	}
	return si.highestPriority
}

// SetHighestPriority is used by dependency resolution: a dependency with a
// higher priority raises this stage with it.
func (si *StageInfo) SetHighestPriority(priority Priority) {
	si.highestPriority = priority
	si.prioritySet = true
}

// RenderMethods returns a copy of the methods in execution order.
func (si *StageInfo) RenderMethods() []RenderMethod {
	return slices.Clone(si.renderMethods)
}

func (si *StageInfo) ExternalRenderMethod(name string) (ExternalMethod, bool) {
	m, ok := si.externalRenderMethods[name]
	return m, ok
}

// ExternalRenderMethodNames returns the registered plugin names, sorted.
func (si *StageInfo) ExternalRenderMethodNames() []string {
	names := make([]string, 0, len(si.externalRenderMethods))
	for name := range si.externalRenderMethods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (si *StageInfo) AddProgram(program Program) {
	si.Programs = append(si.Programs, program)
}

func (si *StageInfo) render() {
	for i := range si.renderMethods {
		si.renderMethods[i].Invoke()
	}
}
