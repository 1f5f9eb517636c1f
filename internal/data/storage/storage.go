package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/songzhibin97/tokensim/internal/data"
	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when no simulation has the requested id.
var ErrNotFound = errors.New("simulation not found")

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	if err := s.initTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// SaveSimulation implements SimulationStorage interface
func (s *PostgresStorage) SaveSimulation(ctx context.Context, sim *engine.Simulation) error {
	query := `
        INSERT INTO simulations (
            id, name, description, status, token, options, report,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9
        )
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            status = EXCLUDED.status,
            token = EXCLUDED.token,
            options = EXCLUDED.options,
            report = EXCLUDED.report,
            updated_at = EXCLUDED.updated_at
    `

	tokenJSON, err := json.Marshal(sim.Token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	optionsJSON, err := json.Marshal(sim.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	// lib/pq sends []byte as bytea, jsonb columns take the text form
	var reportJSON sql.NullString
	if sim.Report != nil {
		b, err := json.Marshal(sim.Report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		reportJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, query,
		sim.ID,
		sim.Name,
		sim.Description,
		string(sim.Status),
		string(tokenJSON),
		string(optionsJSON),
		reportJSON,
		sim.CreatedAt,
		sim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}

	return nil
}

// SaveIntervalReports implements SimulationStorage interface
func (s *PostgresStorage) SaveIntervalReports(ctx context.Context, sim *engine.Simulation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interval_reports WHERE simulation_id = $1`, sim.ID); err != nil {
		return fmt.Errorf("failed to clear interval reports: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO interval_reports (simulation_id, seq, interval_at, report)
        VALUES ($1, $2, $3, $4)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for seq, r := range sim.IntervalReports {
		reportJSON, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode interval report %d: %w", seq, err)
		}
		if _, err := stmt.ExecContext(ctx, sim.ID, seq, r.Interval, string(reportJSON)); err != nil {
			return fmt.Errorf("failed to save interval report %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interval reports: %w", err)
	}
	return nil
}

// GetSimulation implements SimulationStorage interface
func (s *PostgresStorage) GetSimulation(ctx context.Context, id uuid.UUID) (*engine.Simulation, error) {
	query := `
        SELECT id, name, description, status, token, options, report,
               created_at, updated_at
        FROM simulations
        WHERE id = $1
    `

	sim, err := scanSimulation(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT report FROM interval_reports
        WHERE simulation_id = $1
        ORDER BY seq ASC
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query interval reports: %w", err)
	}
	defer rows.Close()

	sim.IntervalReports = []models.SimulationReport{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan interval report: %w", err)
		}
		var r models.SimulationReport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode interval report: %w", err)
		}
		sim.IntervalReports = append(sim.IntervalReports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interval report rows: %w", err)
	}

	return sim, nil
}

// ListSimulations implements SimulationStorage interface
func (s *PostgresStorage) ListSimulations(ctx context.Context, limit int) ([]*engine.Simulation, error) {
	query := `
        SELECT id, name, description, status, token, options, report,
               created_at, updated_at
        FROM simulations
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations: %w", err)
	}
	defer rows.Close()

	result := []*engine.Simulation{}
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		result = append(result, sim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulation rows: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row scanner) (*engine.Simulation, error) {
	var (
		sim                 engine.Simulation
		status              string
		tokenJSON, optsJSON []byte
		reportJSON          []byte
	)

	err := row.Scan(
		&sim.ID,
		&sim.Name,
		&sim.Description,
		&status,
		&tokenJSON,
		&optsJSON,
		&reportJSON,
		&sim.CreatedAt,
		&sim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sim.Status = models.SimulationStatus(status)
	if err := json.Unmarshal(tokenJSON, &sim.Token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if err := json.Unmarshal(optsJSON, &sim.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	if len(reportJSON) > 0 {
		if err := json.Unmarshal(reportJSON, &sim.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
	}

	return &sim, nil
}

func (s *PostgresStorage) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS simulations (
			id UUID PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			token JSONB NOT NULL,
			options JSONB NOT NULL,
			report JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS simulations_created_at_idx ON simulations (created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS interval_reports (
			simulation_id UUID NOT NULL REFERENCES simulations (id) ON DELETE CASCADE,
			seq INT NOT NULL,
			interval_at BIGINT NOT NULL,
			report JSONB NOT NULL,
			PRIMARY KEY (simulation_id, seq)
		)`,
	}

	for _, query := range queries {
		_, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var _ data.SimulationStorage = (*PostgresStorage)(nil)
