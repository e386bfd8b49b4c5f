package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

// PostgresStore persists scraped company records and batch summaries.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// SaveRecord upserts one company record within a single transaction. The
// tier-specific fields travel as a JSON document so the schema does not need
// a column per heuristic.
func (s *PostgresStore) SaveRecord(ctx context.Context, record *domain.CompanyRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	details, err := json.Marshal(record)
	if err != nil {
		return err
	}

	var companyID int
	err = tx.QueryRow(ctx,
		`INSERT INTO companies (url, company_name, extraction_level, scraped_at, details)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE SET
		   company_name = EXCLUDED.company_name, extraction_level = EXCLUDED.extraction_level,
		   scraped_at = EXCLUDED.scraped_at, details = EXCLUDED.details, updated_at = NOW()
		 RETURNING id`,
		record.URL, record.CompanyName, string(record.ExtractionLevel), record.ScrapedAt, details,
	).Scan(&companyID)
	if err != nil {
		return err
	}

	// Batch insert contacts so they stay queryable outside the JSON blob.
	batch := &pgx.Batch{}
	for _, email := range record.Emails {
		batch.Queue(`INSERT INTO company_contacts (company_id, kind, value) VALUES ($1, 'email', $2)
		             ON CONFLICT (company_id, kind, value) DO NOTHING`, companyID, email)
	}
	for _, phone := range record.Phones {
		batch.Queue(`INSERT INTO company_contacts (company_id, kind, value) VALUES ($1, 'phone', $2)
		             ON CONFLICT (company_id, kind, value) DO NOTHING`, companyID, phone)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SaveBatch records a batch summary for the scheduling/reporting surface.
func (s *PostgresStore) SaveBatch(ctx context.Context, result *domain.BatchResult) error {
	failed, err := json.Marshal(result.Failed)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO scrape_batches (query, extraction_level, succeeded, failed, failed_urls, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.Query, string(result.Level), len(result.Succeeded), len(result.Failed),
		failed, result.StartedAt, result.Duration.Milliseconds())
	return err
}

// GetRecord retrieves the stored record for a URL.
func (s *PostgresStore) GetRecord(ctx context.Context, url string) (*domain.CompanyRecord, error) {
	var details []byte
	err := s.db.QueryRow(ctx,
		`SELECT details FROM companies WHERE url = $1`, url,
	).Scan(&details)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("not_found")
	}
	if err != nil {
		return nil, err
	}

	var record domain.CompanyRecord
	if err := json.Unmarshal(details, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
