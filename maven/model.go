package maven

import (
	"encoding/xml"
	"strings"
)

// Project is the subset of a pom.xml needed to convert its dependencies.
type Project struct {
	XMLName    xml.Name   `xml:"project"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Packaging  string     `xml:"packaging"`
	Parent     *Parent    `xml:"parent"`
	Properties Properties `xml:"properties"`
	Modules    []string   `xml:"modules>module"`

	DependencyManagement *DependencyManagement `xml:"dependencyManagement"`
	Dependencies         []Dependency          `xml:"dependencies>dependency"`
}

type Parent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type DependencyManagement struct {
	Dependencies []Dependency `xml:"dependencies>dependency"`
}

// Dependency is a <dependency> element. Absent elements decode to "".
type Dependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Classifier string `xml:"classifier"`
	Type       string `xml:"type"`
	Scope      string `xml:"scope"`
	SystemPath string `xml:"systemPath"`
	Optional   bool   `xml:"optional"`
}

// Properties holds the free-form <properties> children, keyed by element name.
type Properties map[string]string

func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	props := Properties{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			props[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			*p = props
			return nil
		}
	}
}

func (p *Project) EffectiveGroupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

func (p *Project) EffectiveVersion() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

// Coordinates returns group:artifact:version.
func (p *Project) Coordinates() string {
	return p.EffectiveGroupID() + ":" + p.ArtifactID + ":" + p.EffectiveVersion()
}

// Interpolate replaces ${...} placeholders with project properties and
// coordinates. Unknown placeholders are left as-is.
func (p *Project) Interpolate(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(s[:start])
		name := s[start+2 : end]
		if value, ok := p.lookup(name); ok {
			b.WriteString(value)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
	b.WriteString(s)
	return b.String()
}

func (p *Project) lookup(name string) (string, bool) {
	switch name {
	case "project.version", "pom.version", "version":
		return p.EffectiveVersion(), true
	case "project.groupId", "pom.groupId", "groupId":
		return p.EffectiveGroupID(), true
	case "project.artifactId", "pom.artifactId", "artifactId":
		return p.ArtifactID, true
	case "project.parent.version":
		if p.Parent != nil {
			return p.Parent.Version, true
		}
	case "project.parent.groupId":
		if p.Parent != nil {
			return p.Parent.GroupID, true
		}
	}
	value, ok := p.Properties[name]
	return value, ok
}
