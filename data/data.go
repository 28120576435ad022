package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"maven-deps/build"
	"maven-deps/depsdev"
	"maven-deps/managed"
	"maven-deps/maven"
	"maven-deps/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Storage interface {
	UpsertDependencies(ctx context.Context, deps []storage.Dependency) error
	ReplaceProjectDependencies(ctx context.Context, project string, deps []storage.Dependency) error
	GetDependenciesMap(ctx context.Context, deps []storage.Dependency) (map[string]storage.Dependency, error)
	ListDependenciesFiltered(ctx context.Context, f storage.Filter) ([]storage.Dependency, error)
	RecordImport(ctx context.Context, imp storage.Import) error
	ListProjects(ctx context.Context) ([]string, error)
}

type DepsDevAPI interface {
	GetPackageMetadata(ctx context.Context, vk depsdev.VersionKey) (*depsdev.PackageVersionMetadata, error)
	GetScorecardData(ctx context.Context, meta *depsdev.PackageVersionMetadata) depsdev.ScorecardInfo
}

type DataManager struct {
	Store         Storage
	API           DepsDevAPI
	Log           *logrus.Logger
	System        string
	MaxConcurrent int
}

// ImportProject converts the dependencies declared in pom, flags the ones
// pinned by its dependencyManagement section and stores them as the full
// dependency set of project, dropping rows from earlier imports.
// reactor maps "group:artifact" of sibling modules to their project path.
func (dm *DataManager) ImportProject(ctx context.Context, project string, pom *maven.Project, reactor map[string]string) (storage.Import, error) {
	log := dm.Log.WithFields(logrus.Fields{
		"project":     project,
		"coordinates": pom.Coordinates(),
	})

	index := managed.BuildFrom(pom)
	converted := build.Convert(pom, reactor)
	log.Infof("Converted %d dependencies, %d managed entries declared", len(converted), index.Len())

	records := make([]storage.Dependency, 0, len(converted))
	managedCount := 0
	for _, dep := range converted {
		rec := toRecord(project, dep)
		rec.Managed = index.IsManaged(dep)
		if rec.Managed {
			managedCount++
		}
		records = append(records, rec)
	}

	dm.enrich(ctx, records)

	merged, err := dm.mergeExisting(ctx, records)
	if err != nil {
		log.WithError(err).Error("failed to get existing dependencies")
		return storage.Import{}, err
	}
	if err := dm.Store.ReplaceProjectDependencies(ctx, project, merged); err != nil {
		log.WithError(err).Error("failed to store dependencies")
		return storage.Import{}, err
	}

	imp := storage.Import{
		ID:              uuid.NewString(),
		Project:         project,
		Coordinates:     pom.Coordinates(),
		DependencyCount: len(records),
		ManagedCount:    managedCount,
		ImportedAt:      time.Now().UTC(),
	}
	if err := dm.Store.RecordImport(ctx, imp); err != nil {
		log.WithError(err).Error("failed to record import")
		return storage.Import{}, err
	}

	log.WithField("import_id", imp.ID).Infof("Successfully imported %d dependencies (%d managed)", imp.DependencyCount, imp.ManagedCount)
	return imp, nil
}

// RefreshProject re-fetches deps.dev metadata for the stored dependencies of project.
func (dm *DataManager) RefreshProject(ctx context.Context, project string) error {
	dm.Log.Infof("Refreshing dependencies for %s", project)

	records, err := dm.Store.ListDependenciesFiltered(ctx, storage.Filter{Project: project})
	if err != nil {
		dm.Log.WithError(err).Error("failed to list dependencies")
		return err
	}
	if len(records) == 0 {
		return nil
	}

	dm.enrich(ctx, records)

	merged, err := dm.mergeExisting(ctx, records)
	if err != nil {
		dm.Log.WithError(err).Error("failed to get existing dependencies")
		return err
	}
	if err := dm.Store.UpsertDependencies(ctx, merged); err != nil {
		dm.Log.WithError(err).Error("failed to upsert dependencies to database")
		return err
	}

	dm.Log.Infof("Successfully refreshed %d dependencies", len(records))
	return nil
}

func (dm *DataManager) RefreshAll(ctx context.Context) error {
	projects, err := dm.Store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	var errs []error
	for _, p := range projects {
		if err := dm.RefreshProject(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func toRecord(project string, dep build.Dependency) storage.Dependency {
	rec := storage.Dependency{
		Project:       project,
		Configuration: string(dep.ConfigurationName()),
	}
	switch d := dep.(type) {
	case build.ExternalDependency:
		rec.Kind = storage.KindExternal
		rec.Group = d.Group
		rec.Module = d.Module
		rec.Version = d.Version
		rec.Classifier = d.Classifier
	case build.ProjectDependency:
		rec.Kind = storage.KindProject
		rec.Module = d.ProjectPath
	case build.FileDependency:
		rec.Kind = storage.KindFile
		rec.Module = strings.Join(d.Files, ",")
	}
	return rec
}

// mergeExisting keeps previously fetched metadata when the incoming record
// has none.
func (dm *DataManager) mergeExisting(ctx context.Context, records []storage.Dependency) ([]storage.Dependency, error) {
	existingMap, err := dm.Store.GetDependenciesMap(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing dependencies: %w", err)
	}

	merged := make([]storage.Dependency, 0, len(records))
	for _, incoming := range records {
		existing, found := existingMap[incoming.Key()]
		if found {
			if incoming.SourceRepo == "" {
				incoming.SourceRepo = existing.SourceRepo
			}
			if incoming.OpenSSFScore == nil {
				incoming.OpenSSFScore = existing.OpenSSFScore
			}
		}
		merged = append(merged, incoming)
	}

	return merged, nil
}

// enrich fills SourceRepo and OpenSSFScore of external dependencies in
// place. Lookup failures are logged and skipped.
func (dm *DataManager) enrich(ctx context.Context, records []storage.Dependency) {
	if dm.API == nil {
		return
	}

	limit := dm.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, limit)
	)

	for i := range records {
		rec := &records[i]
		if rec.Kind != storage.KindExternal || rec.Version == "" {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			vk := depsdev.MavenVersionKey(dm.System, rec.Group, rec.Module, rec.Version)
			meta, err := dm.API.GetPackageMetadata(ctx, vk)
			if err != nil {
				dm.Log.WithError(err).WithField("package", vk.Name).Warn("skipping metadata")
				return
			}

			scorecard := dm.API.GetScorecardData(ctx, meta)
			rec.SourceRepo = scorecard.SourceRepo
			rec.OpenSSFScore = scorecard.OpenSSFScore
		}()
	}

	wg.Wait()
}
