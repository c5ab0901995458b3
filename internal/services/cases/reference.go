package cases

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	redrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/redis"
)

const (
	countiesCacheKey  = "reference:counties"
	caseTypesCacheKey = "reference:case_types"
	referenceCacheTTL = 10 * time.Minute
)

type ReferenceCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type referenceLoader struct {
	store ReferenceStore
	cache ReferenceCache
	log   *zap.Logger
}

func newReferenceLoader(store ReferenceStore, cache ReferenceCache, log *zap.Logger) *referenceLoader {
	return &referenceLoader{store: store, cache: cache, log: log}
}

// load fetches counties and case types concurrently, read-through the cache when one is configured.
func (l *referenceLoader) load(ctx context.Context) ReferenceData {
	out := ReferenceData{
		Counties:   []model.County{},
		CaseTypes:  []model.CaseType{},
		Advisories: []Advisory{},
	}
	if l.store == nil {
		out.Advisories = append(out.Advisories, Advisory{Source: "reference", Message: "Filter options are temporarily unavailable"})
		return out
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		counties, err := cached(egCtx, l, countiesCacheKey, l.store.ListCounties)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			l.log.Warn("load counties", zap.Error(err))
			out.Advisories = append(out.Advisories, Advisory{Source: "counties", Message: "County list is temporarily unavailable"})
			return nil
		}
		out.Counties = counties
		return nil
	})
	eg.Go(func() error {
		caseTypes, err := cached(egCtx, l, caseTypesCacheKey, l.store.ListCaseTypes)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			l.log.Warn("load case types", zap.Error(err))
			out.Advisories = append(out.Advisories, Advisory{Source: "case_types", Message: "Case type list is temporarily unavailable"})
			return nil
		}
		out.CaseTypes = caseTypes
		return nil
	})
	_ = eg.Wait()

	return out
}

func cached[T any](ctx context.Context, l *referenceLoader, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if l.cache != nil {
		var hit []T
		err := l.cache.GetJSON(ctx, key, &hit)
		if err == nil && hit != nil {
			return hit, nil
		}
		if err != nil && !errors.Is(err, redrepo.ErrCacheMiss) {
			l.log.Debug("reference cache read", zap.String("key", key), zap.Error(err))
		}
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if l.cache != nil && len(items) > 0 {
		if err := l.cache.SetJSON(ctx, key, items, referenceCacheTTL); err != nil {
			l.log.Debug("reference cache write", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
