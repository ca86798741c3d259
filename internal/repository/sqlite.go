package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-emergency-alerts/internal/models"
)

type SQLiteDB struct {
	db *sqlx.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			remote_id INTEGER NOT NULL DEFAULT 0,
			emergency_type TEXT NOT NULL DEFAULT '',
			severity TEXT NOT NULL DEFAULT '',
			latitude REAL,
			longitude REAL,
			accuracy REAL,
			geohash TEXT NOT NULL DEFAULT '',
			payload BLOB NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
		CREATE INDEX IF NOT EXISTS idx_reports_geohash ON reports(geohash);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Add(ctx context.Context, r *models.ReportRecord) error {
	query := `
		INSERT INTO reports (id, remote_id, emergency_type, severity, latitude, longitude, accuracy, geohash, payload, status, error, created_at)
		VALUES (:id, :remote_id, :emergency_type, :severity, :latitude, :longitude, :accuracy, :geohash, :payload, :status, :error, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, r); err != nil {
		return fmt.Errorf("error inserting report: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.ReportRecord, error) {
	var r models.ReportRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM reports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting report: %w", err)
	}
	return &r, nil
}

func (s *SQLiteDB) ListReports(ctx context.Context, opts Filter) ([]models.ReportRecord, error) {
	query := `SELECT * FROM reports WHERE 1=1`
	var args []any

	if opts.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *opts.Since)
	}
	if opts.Status != nil {
		query += ` AND status = ?`
		args = append(args, *opts.Status)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var reports []models.ReportRecord
	if err := s.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	return reports, nil
}

func (s *SQLiteDB) MarkReported(ctx context.Context, id string, remoteID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, remote_id = ?, error = '' WHERE id = ?`,
		models.ReportStatusReported, remoteID, id)
	if err != nil {
		return 0, fmt.Errorf("error marking report reported: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) MarkFailed(ctx context.Context, id string, reason string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, error = ? WHERE id = ?`,
		models.ReportStatusFailed, reason, id)
	if err != nil {
		return 0, fmt.Errorf("error marking report failed: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
