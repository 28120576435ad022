// Package managed tells whether a dependency is pinned by a project's
// <dependencyManagement> section.
package managed

import (
	"maven-deps/build"
	"maven-deps/maven"
)

// Key identifies a managed artifact. A different version is an override of
// the managed one and a different classifier is a different artifact, so
// all four fields take part in equality.
type Key struct {
	Group      string
	Module     string
	Version    string
	Classifier string
}

// Index is read-only once built and safe for concurrent use.
type Index struct {
	keys map[Key]struct{}
}

// BuildFrom indexes the dependencyManagement entries of project, with
// ${...} placeholders resolved. project must not be nil.
func BuildFrom(project *maven.Project) *Index {
	if project == nil {
		panic("managed: BuildFrom called with nil project")
	}

	idx := &Index{keys: make(map[Key]struct{})}
	if project.DependencyManagement == nil {
		return idx
	}
	for _, d := range project.DependencyManagement.Dependencies {
		idx.keys[Key{
			Group:      project.Interpolate(d.GroupID),
			Module:     project.Interpolate(d.ArtifactID),
			Version:    project.Interpolate(d.Version),
			Classifier: project.Interpolate(d.Classifier),
		}] = struct{}{}
	}
	return idx
}

// IsManaged reports whether dep is an external dependency whose group,
// module, version and classifier all match a managed entry.
func (i *Index) IsManaged(dep build.Dependency) bool {
	ext, ok := dep.(build.ExternalDependency)
	if !ok {
		return false
	}
	_, found := i.keys[Key{
		Group:      ext.Group,
		Module:     ext.Module,
		Version:    ext.Version,
		Classifier: ext.Classifier,
	}]
	return found
}

func (i *Index) Len() int {
	return len(i.keys)
}
