package maven

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParsePOM decodes a pom.xml document.
func ParsePOM(r io.Reader) (*Project, error) {
	var p Project
	if err := xml.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode POM: %w", err)
	}
	p.trimSpace()
	if p.ArtifactID == "" {
		return nil, fmt.Errorf("POM has no artifactId")
	}
	return &p, nil
}

// trimSpace strips the whitespace pretty-printed POMs leave around element
// text, so coordinates compare equal to their compact form.
func (p *Project) trimSpace() {
	for _, s := range []*string{&p.GroupID, &p.ArtifactID, &p.Version, &p.Packaging} {
		*s = strings.TrimSpace(*s)
	}
	if p.Parent != nil {
		for _, s := range []*string{&p.Parent.GroupID, &p.Parent.ArtifactID, &p.Parent.Version} {
			*s = strings.TrimSpace(*s)
		}
	}
	for i := range p.Modules {
		p.Modules[i] = strings.TrimSpace(p.Modules[i])
	}
	trimDependencies(p.Dependencies)
	if p.DependencyManagement != nil {
		trimDependencies(p.DependencyManagement.Dependencies)
	}
}

func trimDependencies(deps []Dependency) {
	for i := range deps {
		d := &deps[i]
		for _, s := range []*string{&d.GroupID, &d.ArtifactID, &d.Version, &d.Classifier, &d.Type, &d.Scope, &d.SystemPath} {
			*s = strings.TrimSpace(*s)
		}
	}
}

func ParsePOMFile(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open POM file: %w", err)
	}
	defer f.Close()

	p, err := ParsePOM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
