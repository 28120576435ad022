package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Storage struct {
	DB *sql.DB
}

func (s *Storage) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS dependencies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		group_id TEXT NOT NULL,
		module TEXT NOT NULL,
		version TEXT NOT NULL,
		classifier TEXT NOT NULL DEFAULT '',
		configuration TEXT NOT NULL,
		kind TEXT NOT NULL,
		managed INTEGER NOT NULL DEFAULT 0,
		source_repo TEXT NOT NULL DEFAULT '',
		openssf_score REAL,
		UNIQUE(project, group_id, module, version, classifier, configuration)
	);
	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		coordinates TEXT NOT NULL,
		dependency_count INTEGER NOT NULL,
		managed_count INTEGER NOT NULL,
		imported_at TIMESTAMP NOT NULL
	);`
	_, err := s.DB.ExecContext(ctx, query)
	return err
}

const upsertDependencyQuery = `
  INSERT INTO dependencies (project, group_id, module, version, classifier, configuration, kind, managed, source_repo, openssf_score)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
  ON CONFLICT(project, group_id, module, version, classifier, configuration)
  DO UPDATE SET
    kind = excluded.kind,
    managed = excluded.managed,
    source_repo = excluded.source_repo,
    openssf_score = excluded.openssf_score;
`

const selectColumns = `project, group_id, module, version, classifier, configuration, kind, managed, source_repo, openssf_score`

type scanner interface {
	Scan(dest ...any) error
}

func scanDependency(row scanner) (Dependency, error) {
	var d Dependency
	var score sql.NullFloat64
	err := row.Scan(&d.Project, &d.Group, &d.Module, &d.Version, &d.Classifier,
		&d.Configuration, &d.Kind, &d.Managed, &d.SourceRepo, &score)
	if score.Valid {
		d.OpenSSFScore = &score.Float64
	}
	return d, err
}

func dependencyArgs(dep Dependency) []any {
	return []any{
		dep.Project,
		dep.Group,
		dep.Module,
		dep.Version,
		dep.Classifier,
		dep.Configuration,
		dep.Kind,
		dep.Managed,
		dep.SourceRepo,
		dep.OpenSSFScore,
	}
}

func (s *Storage) UpsertDependencies(ctx context.Context, deps []Dependency) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertDependencyQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, dep := range deps {
		if _, err := stmt.ExecContext(ctx, dependencyArgs(dep)...); err != nil {
			return fmt.Errorf("upserting %s: %w", dep.Key(), err)
		}
	}

	return tx.Commit()
}

// ReplaceProjectDependencies makes deps the complete set of rows stored for
// project. Rows not in deps are removed in the same transaction.
func (s *Storage) ReplaceProjectDependencies(ctx context.Context, project string, deps []Dependency) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dependencies WHERE project=?`, project); err != nil {
		return fmt.Errorf("clearing %s: %w", project, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertDependencyQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, dep := range deps {
		if dep.Project != project {
			return fmt.Errorf("dependency %s does not belong to project %s", dep.Key(), project)
		}
		if _, err := stmt.ExecContext(ctx, dependencyArgs(dep)...); err != nil {
			return fmt.Errorf("upserting %s: %w", dep.Key(), err)
		}
	}

	return tx.Commit()
}

func (s *Storage) UpsertDependency(ctx context.Context, dep Dependency) error {
	_, err := s.DB.ExecContext(ctx, upsertDependencyQuery, dependencyArgs(dep)...)
	return err
}

// GetDependency returns sql.ErrNoRows when nothing matches.
func (s *Storage) GetDependency(ctx context.Context, key Dependency) (Dependency, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+`
	 FROM dependencies
	 WHERE project=? AND group_id=? AND module=? AND version=? AND classifier=? AND configuration=?`,
		key.Project, key.Group, key.Module, key.Version, key.Classifier, key.Configuration,
	)
	return scanDependency(row)
}

func (s *Storage) ListDependenciesFiltered(ctx context.Context, f Filter) ([]Dependency, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM dependencies
		WHERE 1=1
	`
	var args []any

	if f.Project != "" {
		query += " AND project = ?"
		args = append(args, f.Project)
	}

	if f.Name != "" {
		query += " AND (module LIKE ? OR group_id LIKE ?)"
		args = append(args, "%"+f.Name+"%", "%"+f.Name+"%")
	}

	if f.Managed != nil {
		query += " AND managed = ?"
		args = append(args, *f.Managed)
	}

	if f.MinScore != nil {
		query += " AND openssf_score >= ?"
		args = append(args, *f.MinScore)
	}

	query += " ORDER BY project, group_id, module, version, classifier, configuration"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Dependency
	for rows.Next() {
		d, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// DeleteDependency removes the row identified by key.
func (s *Storage) DeleteDependency(ctx context.Context, key Dependency) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM dependencies
	 WHERE project=? AND group_id=? AND module=? AND version=? AND classifier=? AND configuration=?`,
		key.Project, key.Group, key.Module, key.Version, key.Classifier, key.Configuration)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) GetDependenciesMap(ctx context.Context, deps []Dependency) (map[string]Dependency, error) {
	if len(deps) == 0 {
		return map[string]Dependency{}, nil
	}

	var (
		args       []any
		conditions []string
	)
	for _, dep := range deps {
		conditions = append(conditions,
			"(project = ? AND group_id = ? AND module = ? AND version = ? AND classifier = ? AND configuration = ?)")
		args = append(args, dep.Project, dep.Group, dep.Module, dep.Version, dep.Classifier, dep.Configuration)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM dependencies
		WHERE %s;
	`, selectColumns, strings.Join(conditions, " OR "))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]Dependency)
	for rows.Next() {
		dep, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		result[dep.Key()] = dep
	}

	return result, rows.Err()
}

func (s *Storage) RecordImport(ctx context.Context, imp Import) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO imports (id, project, coordinates, dependency_count, managed_count, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.Project, imp.Coordinates, imp.DependencyCount, imp.ManagedCount, imp.ImportedAt.UTC())
	return err
}

// LatestImport returns sql.ErrNoRows when the project was never imported.
func (s *Storage) LatestImport(ctx context.Context, project string) (Import, error) {
	var imp Import
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, project, coordinates, dependency_count, managed_count, imported_at
		 FROM imports WHERE project=? ORDER BY imported_at DESC LIMIT 1`,
		project,
	).Scan(&imp.ID, &imp.Project, &imp.Coordinates, &imp.DependencyCount, &imp.ManagedCount, &imp.ImportedAt)
	return imp, err
}

func (s *Storage) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT project FROM dependencies ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
