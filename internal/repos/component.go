package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/types"
)

type ComponentRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Component, error)
	FetchLatestCandidates(ctx context.Context, tx *gorm.DB, identity types.ComponentIdentity, scope types.Scope) ([]types.LatestCandidate, error)
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	repoLog := baseLog.With("repo", "ComponentRepo")
	return &componentRepo{db: db, log: repoLog}
}

// scopeJoin carries the membership join for one taxonomy level. Every scope
// type runs the same query body with these parameters, there are no
// per-level code paths.
type scopeJoin struct {
	linkTable string
	linkFK    string
	nodeTable string
	hasActive bool
}

var scopeJoins = map[types.ScopeType]scopeJoin{
	types.ScopeProduct:        {linkTable: "component_products", linkFK: "product_id", nodeTable: "product"},
	types.ScopeProductVersion: {linkTable: "component_product_versions", linkFK: "product_version_id", nodeTable: "product_version"},
	types.ScopeProductStream:  {linkTable: "component_product_streams", linkFK: "product_stream_id", nodeTable: "product_stream", hasActive: true},
	types.ScopeProductVariant: {linkTable: "component_product_variants", linkFK: "product_variant_id", nodeTable: "product_variant"},
}

func (cr *componentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Component, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Component
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchLatestCandidates returns every root component matching the exact
// identity that is visible in the given scope. A single SELECT, so the rows
// come from one storage snapshot regardless of concurrent ingestion. No
// ordering is guaranteed.
func (cr *componentRepo) FetchLatestCandidates(ctx context.Context, tx *gorm.DB, identity types.ComponentIdentity, scope types.Scope) ([]types.LatestCandidate, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	join, ok := scopeJoins[scope.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported scope type %q", scope.Type)
	}

	q := transaction.WithContext(ctx).
		Table("component").
		Select(`component.id, component.epoch, component.version, component."release"`).
		Joins(fmt.Sprintf("JOIN %s link ON link.component_id = component.id", join.linkTable)).
		Joins(fmt.Sprintf("JOIN %s node ON node.id = link.%s", join.nodeTable, join.linkFK)).
		Where("node.ofuri = ?", scope.Ofuri).
		Where("component.namespace = ? AND component.name = ? AND component.type = ? AND component.arch = ?",
			identity.Namespace, identity.Name, identity.Type, identity.Arch).
		Where(`(component.type = ? AND component.arch = 'src')
			OR component.type = ?
			OR (component.type = ? AND component.arch = 'noarch')
			OR (component.type = ? AND component.arch = 'noarch' AND component.namespace = ?)`,
			types.ComponentTypeRPM, types.ComponentTypeRPMMOD, types.ComponentTypeOCI,
			types.ComponentTypeGithub, types.NamespaceRedhat)

	if join.hasActive && !scope.IncludeInactiveStreams {
		q = q.Where("node.active = ?", true)
	}

	var results []types.LatestCandidate
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
