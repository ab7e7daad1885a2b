package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flickx/internal/shared"
)

// ExportRecord is one completed collection export.
type ExportRecord struct {
	ID          string
	Kind        string
	Format      string
	Destination string
	ItemCount   int
	FailedCount int
	CreatedAt   time.Time
}

// ExportRepository keeps the export history.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new [ExportRepository] with the given database connection
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts rec with a generated ID and creation time.
func (r *ExportRepository) Create(rec *ExportRecord) error {
	if rec.Kind == "" || rec.Format == "" {
		return fmt.Errorf("%w: export kind and format are required", shared.ErrInvalidInput)
	}

	rec.ID = shared.GenerateID()
	rec.CreatedAt = time.Now()

	query := `
		INSERT INTO exports (id, kind, format, destination, item_count, failed_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, rec.ID, rec.Kind, rec.Format, rec.Destination, rec.ItemCount, rec.FailedCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

// Get retrieves an export by ID.
func (r *ExportRepository) Get(id string) (*ExportRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, kind, format, destination, item_count, failed_count, created_at
		FROM exports WHERE id = ?
	`, id)

	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: export %s", shared.ErrNotFound, id)
	}
	return rec, err
}

// List returns up to limit exports, newest first. A non-positive limit returns all of them.
func (r *ExportRepository) List(limit int) ([]*ExportRecord, error) {
	query := `
		SELECT id, kind, format, destination, item_count, failed_count, created_at
		FROM exports ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var records []*ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exports: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*ExportRecord, error) {
	var rec ExportRecord
	err := s.Scan(&rec.ID, &rec.Kind, &rec.Format, &rec.Destination, &rec.ItemCount, &rec.FailedCount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}
	return &rec, nil
}
