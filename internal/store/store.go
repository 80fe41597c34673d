// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrAnalysisNotFound is returned when an analysis ID has no row
var ErrAnalysisNotFound = errors.New("analysis not found")

// Store persists finished analyses. The full report is stored as a jsonb
// payload with the headline scores denormalized for listing queries.
type Store struct {
	db *sqlx.DB
}

// New connects to postgres and ensures the schema exists
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection, used by tests
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS brand_analyses (
		analysis_id      uuid PRIMARY KEY,
		company_name     text NOT NULL,
		company_url      text NOT NULL DEFAULT '',
		payload          jsonb NOT NULL,
		visibility_score double precision NOT NULL DEFAULT 0,
		overall_score    double precision NOT NULL DEFAULT 0,
		created_at       timestamptz NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_brand_analyses_company
		ON brand_analyses (company_name, created_at DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate brand_analyses: %w", err)
	}
	return nil
}

type analysisRow struct {
	AnalysisID      uuid.UUID `db:"analysis_id"`
	CompanyName     string    `db:"company_name"`
	CompanyURL      string    `db:"company_url"`
	Payload         []byte    `db:"payload"`
	VisibilityScore float64   `db:"visibility_score"`
	OverallScore    float64   `db:"overall_score"`
	CreatedAt       time.Time `db:"created_at"`
}

// SaveAnalysis stores one finished analysis
func (s *Store) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis %s: %w", analysis.AnalysisID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brand_analyses (analysis_id, company_name, company_url, payload, visibility_score, overall_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		analysis.AnalysisID,
		analysis.Company.Name,
		analysis.Company.URL,
		payload,
		analysis.Summary.VisibilityScore,
		analysis.Summary.OverallScore,
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", analysis.AnalysisID, err)
	}
	fmt.Printf("[Store] 💾 Saved analysis %s for %s\n", analysis.AnalysisID, analysis.Company.Name)
	return nil
}

// GetAnalysis loads one analysis by ID
func (s *Store) GetAnalysis(ctx context.Context, analysisID uuid.UUID) (*models.Analysis, error) {
	var row analysisRow
	err := s.db.GetContext(ctx, &row, `
		SELECT analysis_id, company_name, company_url, payload, visibility_score, overall_score, created_at
		FROM brand_analyses WHERE analysis_id = $1`, analysisID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, analysisID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", analysisID, err)
	}

	var analysis models.Analysis
	if err := json.Unmarshal(row.Payload, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis %s: %w", analysisID, err)
	}
	return &analysis, nil
}

// ListAnalyses returns the most recent analyses for a company, newest first
func (s *Store) ListAnalyses(ctx context.Context, companyName string, limit int) ([]*models.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []analysisRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT analysis_id, company_name, company_url, payload, visibility_score, overall_score, created_at
		FROM brand_analyses
		WHERE company_name = $1
		ORDER BY created_at DESC
		LIMIT $2`, companyName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses for %s: %w", companyName, err)
	}

	analyses := make([]*models.Analysis, 0, len(rows))
	for _, row := range rows {
		var analysis models.Analysis
		if err := json.Unmarshal(row.Payload, &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis %s: %w", row.AnalysisID, err)
		}
		analyses = append(analyses, &analysis)
	}
	return analyses, nil
}

// ListTrackedBrands returns every distinct company with at least one stored
// analysis. The scheduled re-analysis workflow feeds on this list.
func (s *Store) ListTrackedBrands(ctx context.Context) ([]models.Company, error) {
	var rows []struct {
		CompanyName string `db:"company_name"`
		CompanyURL  string `db:"company_url"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT company_name, company_url FROM brand_analyses ORDER BY company_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked brands: %w", err)
	}

	brands := make([]models.Company, 0, len(rows))
	for _, row := range rows {
		brands = append(brands, models.Company{Name: row.CompanyName, URL: row.CompanyURL})
	}
	return brands, nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
