package depsdev

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type DepsDevClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// MavenVersionKey builds the deps.dev key for a Maven artifact, whose
// package name is "group:artifact".
func MavenVersionKey(system, group, module, version string) VersionKey {
	return VersionKey{System: system, Name: group + ":" + module, Version: version}
}

func (c *DepsDevClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Fetch metadata for a single package version
func (c *DepsDevClient) GetPackageMetadata(ctx context.Context, vk VersionKey) (*PackageVersionMetadata, error) {
	u := fmt.Sprintf("%s/systems/%s/packages/%s/versions/%s",
		c.BaseURL, vk.System, url.PathEscape(vk.Name), url.PathEscape(vk.Version))

	var meta PackageVersionMetadata
	if err := c.getJSON(ctx, u, &meta); err != nil {
		return nil, fmt.Errorf("package metadata request failed for %s@%s: %w", vk.Name, vk.Version, err)
	}
	return &meta, nil
}

// Fetch scorecard data for the source repository of a package version.
// Failures leave the score unset.
func (c *DepsDevClient) GetScorecardData(ctx context.Context, meta *PackageVersionMetadata) ScorecardInfo {
	var projectID string
	for _, proj := range meta.RelatedProjects {
		if proj.RelationType == "SOURCE_REPO" {
			projectID = proj.ProjectKey.ID
			break
		}
	}

	info := ScorecardInfo{SourceRepo: projectID}
	if projectID == "" {
		return info
	}

	var projMeta ProjectMetadata
	projectURL := fmt.Sprintf("%s/projects/%s", c.BaseURL, url.PathEscape(projectID))
	if err := c.getJSON(ctx, projectURL, &projMeta); err == nil {
		info.OpenSSFScore = &projMeta.Scorecard.OverallScore
	}
	return info
}
