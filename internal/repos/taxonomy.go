package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/types"
)

type TaxonomyRepo interface {
	ScopeExists(ctx context.Context, tx *gorm.DB, scope types.Scope) (bool, error)
	GetStreamByOfuri(ctx context.Context, tx *gorm.DB, ofuri string) (*types.ProductStream, error)
}

type taxonomyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonomyRepo(db *gorm.DB, baseLog *logger.Logger) TaxonomyRepo {
	repoLog := baseLog.With("repo", "TaxonomyRepo")
	return &taxonomyRepo{db: db, log: repoLog}
}

func (tr *taxonomyRepo) ScopeExists(ctx context.Context, tx *gorm.DB, scope types.Scope) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	join, ok := scopeJoins[scope.Type]
	if !ok {
		return false, fmt.Errorf("unsupported scope type %q", scope.Type)
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Table(join.nodeTable).
		Where("ofuri = ?", scope.Ofuri).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (tr *taxonomyRepo) GetStreamByOfuri(ctx context.Context, tx *gorm.DB, ofuri string) (*types.ProductStream, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.ProductStream
	if err := transaction.WithContext(ctx).
		Where("ofuri = ?", ofuri).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
