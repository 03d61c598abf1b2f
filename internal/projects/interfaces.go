package projects

// Discoverer fills in the source, executable and ini paths of a project from
// its project file. It returns an error wrapping ErrNotFound when no main
// source can be located.
type Discoverer interface {
	Discover(paths ProjectPaths) (ProjectPaths, error)
}

// GroupParser returns the ordered member project files of a group file,
// skipping members that do not exist on disk.
type GroupParser interface {
	ParseGroup(path string) ([]string, error)
}

// CompilerLookup reports whether a compiler profile key is registered.
type CompilerLookup interface {
	HasCompiler(key string) bool
}
