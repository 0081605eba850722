package store

import (
	"context"
	"errors"

	"github.com/mrgold/goldmr/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for goldmr: the knowledge corpus
// plus per-tenant check configuration.
type Store interface {
	// Knowledge corpus
	CreateKnowledgeSource(ctx context.Context, src *models.KnowledgeSource) error
	GetKnowledgeSource(ctx context.Context, id string) (*models.KnowledgeSource, error)
	GetKnowledgeSourceByContentHash(ctx context.Context, tenant, contentHash string) (*models.KnowledgeSource, error)
	GetKnowledgeSourceByProviderRef(ctx context.Context, tenant string, st models.KnowledgeSourceType, provider, providerID string) (*models.KnowledgeSource, error)
	UpdateKnowledgeSource(ctx context.Context, src *models.KnowledgeSource) error
	ListKnowledgeSources(ctx context.Context, tenant string, st models.KnowledgeSourceType) ([]*models.KnowledgeSource, error)

	// Tenant check configuration
	UpsertCheckConfig(ctx context.Context, cfg *models.CheckConfig) error
	ListCheckConfigs(ctx context.Context, tenant string) ([]*models.CheckConfig, error)
	SetCategoryWeight(ctx context.Context, tenant string, cat models.CheckCategory, weight float64) error
	GetCategoryWeights(ctx context.Context, tenant string) (models.CategoryWeights, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
