package depsdev

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func writeBody(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if body == nil {
		return
	}
	switch v := body.(type) {
	case string:
		fmt.Fprint(w, v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestMavenVersionKey(t *testing.T) {
	want := VersionKey{System: "MAVEN", Name: "org.slf4j:slf4j-api", Version: "2.0.9"}
	if got := MavenVersionKey("MAVEN", "org.slf4j", "slf4j-api", "2.0.9"); got != want {
		t.Errorf("want %+v, got %+v", want, got)
	}
}

func TestGetPackageMetadata(t *testing.T) {
	sourceRepo := RelatedProject{ProjectKey: ProjectKey{ID: "github.com/qos-ch/slf4j"}, RelationType: "SOURCE_REPO"}

	tests := []struct {
		name             string
		statusCode       int
		body             any
		expectError      bool
		expectedMetadata *PackageVersionMetadata
	}{
		{
			name:       "Valid metadata",
			statusCode: http.StatusOK,
			body: PackageVersionMetadata{
				Licenses: []string{"MIT"},
				RelatedProjects: []RelatedProject{
					{ProjectKey: ProjectKey{ID: "github.com/qos-ch/slf4j"}, RelationType: "ISSUE_TRACKER"},
					sourceRepo,
				},
			},
			expectError: false,
			expectedMetadata: &PackageVersionMetadata{
				Licenses: []string{"MIT"},
				RelatedProjects: []RelatedProject{
					{ProjectKey: ProjectKey{ID: "github.com/qos-ch/slf4j"}, RelationType: "ISSUE_TRACKER"},
					sourceRepo,
				},
			},
		},
		{
			name:             "Invalid JSON",
			statusCode:       http.StatusOK,
			body:             "bad-json",
			expectError:      true,
			expectedMetadata: nil,
		},
		{
			name:             "Not found",
			statusCode:       http.StatusNotFound,
			body:             nil,
			expectError:      true,
			expectedMetadata: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if want := "/systems/MAVEN/packages/org.slf4j:slf4j-api/versions/2.0.9"; r.URL.Path != want {
					t.Errorf("unexpected request path: %s", r.URL.Path)
				}
				writeBody(w, tt.statusCode, tt.body)
			}))
			defer server.Close()

			client := &DepsDevClient{
				BaseURL:    server.URL,
				HTTPClient: http.DefaultClient,
			}

			meta, err := client.GetPackageMetadata(context.Background(), MavenVersionKey("MAVEN", "org.slf4j", "slf4j-api", "2.0.9"))

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				if meta != nil {
					t.Errorf("expected nil metadata, got %v", meta)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if !reflect.DeepEqual(meta, tt.expectedMetadata) {
					t.Errorf("expected metadata %+v, got %+v", tt.expectedMetadata, meta)
				}
			}
		})
	}
}

func TestGetScorecardData(t *testing.T) {
	projectID := "github.com/qos-ch/slf4j"
	withSourceRepo := &PackageVersionMetadata{
		RelatedProjects: []RelatedProject{
			{ProjectKey: ProjectKey{ID: "example.com/tracker"}, RelationType: "ISSUE_TRACKER"},
			{ProjectKey: ProjectKey{ID: projectID}, RelationType: "SOURCE_REPO"},
		},
	}

	tests := []struct {
		name          string
		statusCode    int
		body          any
		meta          *PackageVersionMetadata
		expectedRepo  string
		expectedScore *float64
	}{
		{
			name:       "Valid project with score",
			statusCode: http.StatusOK,
			body: ProjectMetadata{
				Scorecard: struct {
					OverallScore float64 `json:"overallScore"`
				}{OverallScore: 9.1},
			},
			meta:          withSourceRepo,
			expectedRepo:  projectID,
			expectedScore: float64Ptr(9.1),
		},
		{
			name:          "Project not found",
			statusCode:    http.StatusNotFound,
			meta:          withSourceRepo,
			expectedRepo:  projectID,
			expectedScore: nil,
		},
		{
			name:          "Invalid JSON response",
			statusCode:    http.StatusOK,
			body:          "bad-json",
			meta:          withSourceRepo,
			expectedRepo:  projectID,
			expectedScore: nil,
		},
		{
			name:          "No source repo",
			statusCode:    http.StatusOK,
			meta:          &PackageVersionMetadata{},
			expectedRepo:  "",
			expectedScore: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != fmt.Sprintf("/projects/%s", projectID) {
					t.Errorf("unexpected request path: %s", r.URL.Path)
				}
				writeBody(w, tt.statusCode, tt.body)
			}))
			defer server.Close()

			client := &DepsDevClient{
				BaseURL:    server.URL,
				HTTPClient: http.DefaultClient,
			}

			result := client.GetScorecardData(context.Background(), tt.meta)

			if result.SourceRepo != tt.expectedRepo {
				t.Errorf("expected source repo %q, got %q", tt.expectedRepo, result.SourceRepo)
			}
			if tt.expectedScore == nil && result.OpenSSFScore != nil {
				t.Errorf("expected nil score, got %v", *result.OpenSSFScore)
			}
			if tt.expectedScore != nil {
				if result.OpenSSFScore == nil {
					t.Errorf("expected score %v, got nil", *tt.expectedScore)
				} else if *result.OpenSSFScore != *tt.expectedScore {
					t.Errorf("expected score %v, got %v", *tt.expectedScore, *result.OpenSSFScore)
				}
			}
		})
	}
}

func float64Ptr(f float64) *float64 {
	return &f
}
