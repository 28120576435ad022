package depsdev

type VersionKey struct {
	System  string `json:"system"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ProjectKey struct {
	ID string `json:"id"`
}

type RelatedProject struct {
	ProjectKey         ProjectKey `json:"projectKey"`
	RelationType       string     `json:"relationType"`
	RelationProvenance string     `json:"relationProvenance,omitempty"`
}

type PackageVersionMetadata struct {
	VersionKey      VersionKey       `json:"versionKey"`
	IsDefault       bool             `json:"isDefault"`
	Licenses        []string         `json:"licenses"`
	RelatedProjects []RelatedProject `json:"relatedProjects"`
}

type ProjectMetadata struct {
	Scorecard struct {
		OverallScore float64 `json:"overallScore"`
	} `json:"scorecard"`
}

type ScorecardInfo struct {
	SourceRepo   string
	OpenSSFScore *float64
}
