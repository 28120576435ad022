package build

import "strings"

type Configuration string

const (
	API                Configuration = "api"
	Implementation     Configuration = "implementation"
	CompileOnly        Configuration = "compileOnly"
	RuntimeOnly        Configuration = "runtimeOnly"
	TestImplementation Configuration = "testImplementation"
	TestRuntimeOnly    Configuration = "testRuntimeOnly"
)

// Dependency is one of ExternalDependency, ProjectDependency or
// FileDependency.
type Dependency interface {
	ConfigurationName() Configuration
	isDependency()
}

// ExternalDependency is resolved from a repository by its coordinates.
type ExternalDependency struct {
	Configuration Configuration
	Group         string
	Module        string
	Version       string
	Classifier    string
}

// ProjectDependency points at another module of the same build.
type ProjectDependency struct {
	Configuration Configuration
	ProjectPath   string
}

// FileDependency references local files, e.g. system-scoped jars.
type FileDependency struct {
	Configuration Configuration
	Files         []string
}

func (d ExternalDependency) ConfigurationName() Configuration { return d.Configuration }
func (d ProjectDependency) ConfigurationName() Configuration  { return d.Configuration }
func (d FileDependency) ConfigurationName() Configuration     { return d.Configuration }

func (ExternalDependency) isDependency() {}
func (ProjectDependency) isDependency()  {}
func (FileDependency) isDependency()     {}

// Coordinates returns group:module:version, with :classifier appended when set.
func (d ExternalDependency) Coordinates() string {
	parts := []string{d.Group, d.Module, d.Version}
	if d.Classifier != "" {
		parts = append(parts, d.Classifier)
	}
	return strings.Join(parts, ":")
}
