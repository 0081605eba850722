package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mrgold/goldmr/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors under duplicate event delivery.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Knowledge sources ---

const knowledgeColumns = `id, tenant, source_type, provider, provider_id, title, source_url, content, content_hash, metadata, created_at, updated_at`

func (s *SQLiteStore) CreateKnowledgeSource(ctx context.Context, src *models.KnowledgeSource) error {
	if src.ID == "" {
		src.ID = newULID()
	}
	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	meta, err := src.Metadata.Encode()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO knowledge_sources (`+knowledgeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Tenant, string(src.SourceType), src.Provider, src.ProviderID,
		src.Title, src.SourceURL, src.Content, src.ContentHash, meta, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create knowledge source: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanKnowledgeSource(row *sql.Row) (*models.KnowledgeSource, error) {
	src := &models.KnowledgeSource{}
	var st, meta string
	err := row.Scan(&src.ID, &src.Tenant, &st, &src.Provider, &src.ProviderID,
		&src.Title, &src.SourceURL, &src.Content, &src.ContentHash, &meta, &src.CreatedAt, &src.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan knowledge source: %w", err)
	}
	src.SourceType = models.KnowledgeSourceType(st)
	decoded, err := models.DecodeKnowledgeMetadata(meta)
	if err != nil {
		return nil, err
	}
	src.Metadata = *decoded
	return src, nil
}

func (s *SQLiteStore) GetKnowledgeSource(ctx context.Context, id string) (*models.KnowledgeSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_sources WHERE id = ?`, id)
	return s.scanKnowledgeSource(row)
}

func (s *SQLiteStore) GetKnowledgeSourceByContentHash(ctx context.Context, tenant, contentHash string) (*models.KnowledgeSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_sources WHERE tenant = ? AND content_hash = ?`,
		tenant, contentHash)
	return s.scanKnowledgeSource(row)
}

func (s *SQLiteStore) GetKnowledgeSourceByProviderRef(ctx context.Context, tenant string, st models.KnowledgeSourceType, provider, providerID string) (*models.KnowledgeSource, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_sources
		WHERE tenant = ? AND source_type = ? AND provider = ? AND provider_id = ?`,
		tenant, string(st), provider, providerID)
	return s.scanKnowledgeSource(row)
}

func (s *SQLiteStore) UpdateKnowledgeSource(ctx context.Context, src *models.KnowledgeSource) error {
	src.UpdatedAt = time.Now().UTC()
	meta, err := src.Metadata.Encode()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_sources
		SET title = ?, source_url = ?, content = ?, content_hash = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		src.Title, src.SourceURL, src.Content, src.ContentHash, meta, src.UpdatedAt, src.ID,
	)
	if err != nil {
		return fmt.Errorf("update knowledge source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update knowledge source: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListKnowledgeSources(ctx context.Context, tenant string, st models.KnowledgeSourceType) ([]*models.KnowledgeSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge_sources
		WHERE tenant = ? AND source_type = ? ORDER BY created_at DESC`,
		tenant, string(st))
	if err != nil {
		return nil, fmt.Errorf("list knowledge sources: %w", err)
	}
	defer rows.Close()

	var out []*models.KnowledgeSource
	for rows.Next() {
		src := &models.KnowledgeSource{}
		var typ, meta string
		err := rows.Scan(&src.ID, &src.Tenant, &typ, &src.Provider, &src.ProviderID,
			&src.Title, &src.SourceURL, &src.Content, &src.ContentHash, &meta, &src.CreatedAt, &src.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan knowledge source: %w", err)
		}
		src.SourceType = models.KnowledgeSourceType(typ)
		decoded, err := models.DecodeKnowledgeMetadata(meta)
		if err != nil {
			return nil, err
		}
		src.Metadata = *decoded
		out = append(out, src)
	}
	return out, rows.Err()
}

// --- Check configs ---

func (s *SQLiteStore) UpsertCheckConfig(ctx context.Context, cfg *models.CheckConfig) error {
	th, err := json.Marshal(cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}
	enabled := 0
	if cfg.Enabled {
		enabled = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO check_configs (tenant, check_key, enabled, severity_override, thresholds, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant, check_key) DO UPDATE SET
			enabled = excluded.enabled,
			severity_override = excluded.severity_override,
			thresholds = excluded.thresholds,
			updated_at = excluded.updated_at`,
		cfg.Tenant, cfg.CheckKey, enabled, string(cfg.SeverityOverride), string(th), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert check config: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCheckConfigs(ctx context.Context, tenant string) ([]*models.CheckConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tenant, check_key, enabled, severity_override, thresholds
		FROM check_configs WHERE tenant = ? ORDER BY check_key`, tenant)
	if err != nil {
		return nil, fmt.Errorf("list check configs: %w", err)
	}
	defer rows.Close()

	var out []*models.CheckConfig
	for rows.Next() {
		cfg := &models.CheckConfig{}
		var enabled int
		var override, th string
		if err := rows.Scan(&cfg.Tenant, &cfg.CheckKey, &enabled, &override, &th); err != nil {
			return nil, fmt.Errorf("scan check config: %w", err)
		}
		cfg.Enabled = enabled != 0
		cfg.SeverityOverride = models.CheckStatus(override)
		if th != "" && th != "{}" {
			if err := json.Unmarshal([]byte(th), &cfg.Thresholds); err != nil {
				return nil, fmt.Errorf("decode thresholds for %s: %w", cfg.CheckKey, err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// --- Category weights ---

func (s *SQLiteStore) SetCategoryWeight(ctx context.Context, tenant string, cat models.CheckCategory, weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("category weight must be positive, got %v", weight)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO category_weights (tenant, category, weight, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant, category) DO UPDATE SET
			weight = excluded.weight,
			updated_at = excluded.updated_at`,
		tenant, string(cat), weight, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set category weight: %w", err)
	}
	return nil
}

// GetCategoryWeights returns the tenant's weight table: defaults overlaid
// with any stored overrides.
func (s *SQLiteStore) GetCategoryWeights(ctx context.Context, tenant string) (models.CategoryWeights, error) {
	weights := models.DefaultCategoryWeights()

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, weight FROM category_weights WHERE tenant = ?`, tenant)
	if err != nil {
		return nil, fmt.Errorf("get category weights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var w float64
		if err := rows.Scan(&cat, &w); err != nil {
			return nil, fmt.Errorf("scan category weight: %w", err)
		}
		weights[models.CheckCategory(cat)] = w
	}
	return weights, rows.Err()
}
