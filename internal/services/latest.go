package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/clients/redis"
	"github.com/buildgrid/catalog-backend/internal/pkg/apierr"
	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/rpmver"
	"github.com/buildgrid/catalog-backend/internal/types"
)

// CandidateSource is the read-only port the resolver folds over. The GORM
// ComponentRepo is the production implementation; tests substitute in-memory
// ones. No ordering guarantee is required from the source.
type CandidateSource interface {
	FetchLatestCandidates(ctx context.Context, tx *gorm.DB, identity types.ComponentIdentity, scope types.Scope) ([]types.LatestCandidate, error)
}

type LatestQuery struct {
	ScopeType              types.ScopeType
	ScopeOfuri             string
	ComponentType          types.ComponentType
	Namespace              types.Namespace
	Name                   string
	Arch                   string
	IncludeInactiveStreams bool
}

func (q LatestQuery) Identity() types.ComponentIdentity {
	return types.ComponentIdentity{
		Namespace: q.Namespace,
		Name:      q.Name,
		Type:      q.ComponentType,
		Arch:      q.Arch,
	}
}

func (q LatestQuery) Scope() types.Scope {
	return types.Scope{
		Type:                   q.ScopeType,
		Ofuri:                  q.ScopeOfuri,
		IncludeInactiveStreams: q.IncludeInactiveStreams,
	}
}

func (q LatestQuery) Validate() error {
	if err := q.Scope().Validate(); err != nil {
		return err
	}
	return q.Identity().Validate()
}

// CacheKey identifies the full query tuple; any field change must produce a
// distinct key.
func (q LatestQuery) CacheKey() string {
	return strings.Join([]string{
		"latest", "v1",
		string(q.ScopeType), q.ScopeOfuri,
		string(q.Namespace), q.Name, string(q.ComponentType), q.Arch,
		fmt.Sprintf("%t", q.IncludeInactiveStreams),
	}, ":")
}

type LatestResult struct {
	Query LatestQuery
	ID    uuid.UUID
	Found bool
}

type LatestService interface {
	ResolveLatest(ctx context.Context, q LatestQuery) (uuid.UUID, bool, error)
	ResolveLatestBatch(ctx context.Context, queries []LatestQuery) ([]LatestResult, error)
}

type latestService struct {
	db     *gorm.DB
	log    *logger.Logger
	source CandidateSource
	cache  redis.LatestCache
	tracer trace.Tracer
}

// NewLatestService builds the resolver. cache may be nil; resolution then
// always goes to storage.
func NewLatestService(db *gorm.DB, log *logger.Logger, source CandidateSource, cache redis.LatestCache) LatestService {
	serviceLog := log.With("service", "LatestService")
	return &latestService{
		db:     db,
		log:    serviceLog,
		source: source,
		cache:  cache,
		tracer: otel.Tracer("services/latest"),
	}
}

// ResolveLatest returns the identifier of the highest-versioned root
// component matching the query, or found=false when no candidate is visible
// in the scope. Not-found is never an error; invalid queries and storage
// failures are.
func (ls *latestService) ResolveLatest(ctx context.Context, q LatestQuery) (uuid.UUID, bool, error) {
	ctx, span := ls.tracer.Start(ctx, "ResolveLatest",
		trace.WithAttributes(
			attribute.String("scope.type", string(q.ScopeType)),
			attribute.String("scope.ofuri", q.ScopeOfuri),
			attribute.String("component.name", q.Name),
		))
	defer span.End()

	if err := q.Validate(); err != nil {
		return uuid.Nil, false, apierr.New(http.StatusBadRequest, "invalid_query", err)
	}

	// Only root components are ever latest; an identity that cannot satisfy
	// the predicate has an empty candidate set without asking storage.
	if !types.IsRootComponent(q.Namespace, q.ComponentType, q.Arch) {
		return uuid.Nil, false, nil
	}

	key := q.CacheKey()
	if ls.cache != nil {
		id, hit, err := ls.cache.Get(ctx, key)
		if err != nil {
			ls.log.Warn("Latest cache read failed, resolving from storage", "key", key, "error", err)
		} else if hit {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return id, true, nil
		}
	}

	candidates, err := ls.source.FetchLatestCandidates(ctx, ls.db, q.Identity(), q.Scope())
	if err != nil {
		return uuid.Nil, false, err
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))

	best, found := pickLatest(candidates)
	if !found {
		return uuid.Nil, false, nil
	}

	if ls.cache != nil {
		if err := ls.cache.Set(ctx, key, best.ID); err != nil {
			ls.log.Warn("Latest cache write failed", "key", key, "error", err)
		}
	}
	return best.ID, true, nil
}

// ResolveLatestBatch resolves independent queries concurrently. A not-found
// entry never fails the batch; the first invalid query or storage failure
// does.
func (ls *latestService) ResolveLatestBatch(ctx context.Context, queries []LatestQuery) ([]LatestResult, error) {
	results := make([]LatestResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, q := range queries {
		g.Go(func() error {
			id, found, err := ls.ResolveLatest(gctx, q)
			if err != nil {
				return err
			}
			results[i] = LatestResult{Query: q, ID: id, Found: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// pickLatest reduces the candidate set to a single winner. The fold keeps the
// running best and replaces it whenever a candidate compares higher; exact
// EVR ties break on the greater identifier, so the winner does not depend on
// the order candidates arrive in even when true duplicates share a scope.
func pickLatest(candidates []types.LatestCandidate) (types.LatestCandidate, bool) {
	if len(candidates) == 0 {
		return types.LatestCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		cmp := rpmver.CompareEVR(c.Epoch, c.Version, c.Release, best.Epoch, best.Version, best.Release)
		if cmp > 0 || (cmp == 0 && bytes.Compare(c.ID[:], best.ID[:]) > 0) {
			best = c
		}
	}
	return best, true
}
