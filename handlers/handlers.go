package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"maven-deps/build"
	"maven-deps/maven"
	"maven-deps/storage"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxPOMSize = 4 << 20

type Storage interface {
	ListDependenciesFiltered(ctx context.Context, f storage.Filter) ([]storage.Dependency, error)
	GetDependency(ctx context.Context, key storage.Dependency) (storage.Dependency, error)
	UpsertDependency(ctx context.Context, dep storage.Dependency) error
	DeleteDependency(ctx context.Context, key storage.Dependency) (int64, error)
	ListProjects(ctx context.Context) ([]string, error)
	LatestImport(ctx context.Context, project string) (storage.Import, error)
}

type DataManager interface {
	ImportProject(ctx context.Context, project string, pom *maven.Project, reactor map[string]string) (storage.Import, error)
	RefreshProject(ctx context.Context, project string) error
}

type Handler struct {
	Store       Storage
	DataManager DataManager
	Log         *logrus.Logger
}

// Routes registers the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/projects", h.ListProjects)
	r.Route("/projects/{project}", func(r chi.Router) {
		r.Get("/", h.GetProject)
		r.Post("/pom", h.ImportPOM)
		r.Post("/refresh", h.RefreshHandler)
		r.Get("/dependencies", h.ListDependencies)
		r.Get("/dependencies/{group}/{module}/{version}", h.GetDependency)
		r.Put("/dependencies/{group}/{module}/{version}", h.UpdateDependency)
		r.Delete("/dependencies/{group}/{module}/{version}", h.DeleteDependency)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// dependencyKey reads the row identity from the path and the optional
// classifier and configuration query parameters. A missing configuration
// means implementation.
func dependencyKey(r *http.Request) storage.Dependency {
	key := storage.Dependency{
		Project:       chi.URLParam(r, "project"),
		Group:         chi.URLParam(r, "group"),
		Module:        chi.URLParam(r, "module"),
		Version:       chi.URLParam(r, "version"),
		Classifier:    r.URL.Query().Get("classifier"),
		Configuration: r.URL.Query().Get("configuration"),
	}
	if key.Configuration == "" {
		key.Configuration = string(build.Implementation)
	}
	return key
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("listing projects")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []string{}
	}
	if err := writeJSON(w, http.StatusOK, projects); err != nil {
		h.Log.WithError(err).Error("encoding projects response")
	}
}

// GetProject returns the most recent import of a project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	imp, err := h.Store.LatestImport(r.Context(), project)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithField("project", project).WithError(err).Error("fetching latest import")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, imp); err != nil {
		h.Log.WithError(err).Error("encoding project response")
	}
}

func (h *Handler) ImportPOM(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	if project == "" {
		http.Error(w, "missing project", http.StatusBadRequest)
		return
	}

	pom, err := maven.ParsePOM(http.MaxBytesReader(w, r.Body, maxPOMSize))
	if err != nil {
		h.Log.WithField("project", project).WithError(err).Warn("rejecting POM")
		http.Error(w, "invalid POM", http.StatusBadRequest)
		return
	}

	imp, err := h.DataManager.ImportProject(r.Context(), project, pom, build.ReactorFor(pom))
	if err != nil {
		h.Log.WithError(err).Error("importing POM")
		http.Error(w, "failed to import POM", http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusCreated, imp); err != nil {
		h.Log.WithError(err).Error("encoding import response")
	}
}

func (h *Handler) ListDependencies(w http.ResponseWriter, r *http.Request) {
	f := storage.Filter{
		Project: chi.URLParam(r, "project"),
		Name:    r.URL.Query().Get("name"),
	}

	if v := r.URL.Query().Get("managed"); v != "" {
		managed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid managed value", http.StatusBadRequest)
			return
		}
		f.Managed = &managed
	}

	if v := r.URL.Query().Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid min_score value", http.StatusBadRequest)
			return
		}
		f.MinScore = &score
	}

	deps, err := h.Store.ListDependenciesFiltered(r.Context(), f)
	if err != nil {
		h.Log.WithError(err).Error("listing dependencies with filters")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if deps == nil {
		deps = []storage.Dependency{}
	}

	if err := writeJSON(w, http.StatusOK, deps); err != nil {
		h.Log.WithError(err).Error("encoding dependencies list response")
	}
}

func (h *Handler) GetDependency(w http.ResponseWriter, r *http.Request) {
	key := dependencyKey(r)

	dep, err := h.Store.GetDependency(r.Context(), key)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "dependency not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.WithFields(logrus.Fields{
			"project": key.Project,
			"group":   key.Group,
			"module":  key.Module,
			"version": key.Version,
		}).WithError(err).Error("fetching dependency")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, dep); err != nil {
		h.Log.WithError(err).Error("encoding single dependency response")
	}
}

type DependencyUpdateRequest struct {
	SourceRepo   *string  `json:"source_repo,omitempty"`
	OpenSSFScore *float64 `json:"openssf_score,omitempty"`
}

func (h *Handler) UpdateDependency(w http.ResponseWriter, r *http.Request) {
	key := dependencyKey(r)

	var input DependencyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	current, err := h.Store.GetDependency(r.Context(), key)
	if err != nil {
		http.Error(w, "dependency not found", http.StatusNotFound)
		return
	}

	if input.SourceRepo != nil {
		current.SourceRepo = *input.SourceRepo
	}
	if input.OpenSSFScore != nil {
		current.OpenSSFScore = input.OpenSSFScore
	}

	if err := h.Store.UpsertDependency(r.Context(), current); err != nil {
		h.Log.WithError(err).Error("updating dependency")
		http.Error(w, "failed to update dependency", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteDependency(w http.ResponseWriter, r *http.Request) {
	key := dependencyKey(r)

	n, err := h.Store.DeleteDependency(r.Context(), key)
	if err != nil {
		h.Log.WithError(err).Error("deleting dependency")
		http.Error(w, "failed to delete dependency", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		http.Error(w, "dependency not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	if err := h.DataManager.RefreshProject(r.Context(), project); err != nil {
		h.Log.WithError(err).Error("failed to refresh dependencies")
		http.Error(w, "failed to refresh dependencies", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
