package loaders

/** @brief A loaded resource as returned by a loader. */
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     interface{}
}
