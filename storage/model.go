package storage

import (
	"fmt"
	"time"
)

type Dependency struct {
	Project       string   `json:"project"`
	Group         string   `json:"group"`
	Module        string   `json:"module"`
	Version       string   `json:"version"`
	Classifier    string   `json:"classifier,omitempty"`
	Configuration string   `json:"configuration"`
	Kind          string   `json:"kind"`
	Managed       bool     `json:"managed"`
	SourceRepo    string   `json:"source_repo,omitempty"`
	OpenSSFScore  *float64 `json:"openssf_score,omitempty"`
}

const (
	KindExternal = "external"
	KindProject  = "project"
	KindFile     = "file"
)

// Key identifies a row within the unique constraint of the dependencies table.
func (d Dependency) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", d.Project, d.Group, d.Module, d.Version, d.Classifier, d.Configuration)
}

type Import struct {
	ID              string    `json:"id"`
	Project         string    `json:"project"`
	Coordinates     string    `json:"coordinates"`
	DependencyCount int       `json:"dependency_count"`
	ManagedCount    int       `json:"managed_count"`
	ImportedAt      time.Time `json:"imported_at"`
}

type Filter struct {
	Project  string
	Name     string
	Managed  *bool
	MinScore *float64
}
