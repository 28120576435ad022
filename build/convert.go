package build

import (
	"path"
	"strings"

	"maven-deps/maven"
)

// ConfigurationForScope maps a Maven scope to a configuration. The second
// return value is false for scopes that do not produce a dependency.
func ConfigurationForScope(scope string) (Configuration, bool) {
	switch scope {
	case "", "compile":
		return Implementation, true
	case "provided", "system":
		return CompileOnly, true
	case "runtime":
		return RuntimeOnly, true
	case "test":
		return TestImplementation, true
	case "import":
		return "", false
	default:
		return Implementation, true
	}
}

// Convert turns the declared dependencies of project into build
// dependencies. reactor maps "group:artifact" of sibling modules to their
// project path; matching dependencies become ProjectDependency values.
func Convert(project *maven.Project, reactor map[string]string) []Dependency {
	var deps []Dependency
	for _, d := range project.Dependencies {
		conf, ok := ConfigurationForScope(d.Scope)
		if !ok {
			continue
		}

		group := project.Interpolate(d.GroupID)
		module := project.Interpolate(d.ArtifactID)

		if path, ok := reactor[group+":"+module]; ok {
			deps = append(deps, ProjectDependency{Configuration: conf, ProjectPath: path})
			continue
		}

		if d.Scope == "system" {
			var files []string
			if d.SystemPath != "" {
				files = append(files, project.Interpolate(d.SystemPath))
			}
			deps = append(deps, FileDependency{Configuration: conf, Files: files})
			continue
		}

		classifier := project.Interpolate(d.Classifier)
		version := project.Interpolate(d.Version)
		if version == "" {
			version = managedVersion(project, group, module, classifier)
		}

		deps = append(deps, ExternalDependency{
			Configuration: conf,
			Group:         group,
			Module:        module,
			Version:       version,
			Classifier:    classifier,
		})
	}
	return deps
}

// managedVersion returns the version dependencyManagement declares for the
// artifact, or "" when it is not managed. This mirrors how Maven fills in
// versions when building the effective model.
func managedVersion(project *maven.Project, group, module, classifier string) string {
	if project.DependencyManagement == nil {
		return ""
	}
	for _, m := range project.DependencyManagement.Dependencies {
		if project.Interpolate(m.GroupID) == group &&
			project.Interpolate(m.ArtifactID) == module &&
			project.Interpolate(m.Classifier) == classifier {
			return project.Interpolate(m.Version)
		}
	}
	return ""
}

// ReactorFor maps the <modules> of an aggregator project to project paths,
// assuming each module's artifactId matches its directory name and that it
// shares the aggregator's groupId.
func ReactorFor(project *maven.Project) map[string]string {
	reactor := make(map[string]string, len(project.Modules))
	group := project.EffectiveGroupID()
	for _, m := range project.Modules {
		name := path.Base(strings.TrimSuffix(m, "/"))
		reactor[group+":"+name] = ":" + name
	}
	return reactor
}
