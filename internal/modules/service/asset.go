package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const assetCodeCacheTTL = 10 * time.Minute

func assetCodeCacheKey(code string) string { return "asset:code:" + code }

// invalidateAssetCode drops cached code lookups. Cache trouble is logged
// and swallowed; the database stays authoritative.
func invalidateAssetCode(ctx context.Context, rdb *redis.Client, log *zap.Logger, codes ...string) {
	if rdb == nil || len(codes) == 0 {
		return
	}
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, assetCodeCacheKey(c))
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn("asset code cache invalidation failed", zap.Error(err))
	}
}

type AssetService interface {
	Create(ctx context.Context, a *model.Asset) error
	Get(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	// FindByCode resolves an asset by any of its codes, or by its raw id.
	FindByCode(ctx context.Context, code string) (*model.Asset, error)
	List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Asset, error)
	UpdateState(ctx context.Context, id uuid.UUID, state model.AssetState) (*model.Asset, error)
	// Delete removes the asset, its tree node if any, and prunes location
	// chains the removal emptied.
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetService struct {
	r        repo.AssetRepo
	nodeRepo repo.NodeRepo
	rdb      *redis.Client
	log      *zap.Logger
}

func NewAssetService(r repo.AssetRepo, nodeRepo repo.NodeRepo, rdb *redis.Client, log *zap.Logger) AssetService {
	return &assetService{r: r, nodeRepo: nodeRepo, rdb: rdb, log: log}
}

func (s *assetService) Create(ctx context.Context, a *model.Asset) error {
	if a.State == "" {
		a.State = model.AssetStateKnown
	}
	return s.r.Create(ctx, a)
}

func (s *assetService) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	return s.r.Get(ctx, id)
}

func (s *assetService) FindByCode(ctx context.Context, code string) (*model.Asset, error) {
	// A bare uuid is accepted as a code of last resort.
	if id, err := uuid.Parse(code); err == nil {
		return s.r.Get(ctx, id)
	}

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, assetCodeCacheKey(code)).Result(); err == nil {
			if id, perr := uuid.Parse(cached); perr == nil {
				if a, gerr := s.r.Get(ctx, id); gerr == nil {
					return a, nil
				}
				// Stale entry, fall through to the database.
				invalidateAssetCode(ctx, s.rdb, s.log, code)
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn("asset code cache read failed", zap.Error(err))
		}
	}

	a, err := s.r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, assetCodeCacheKey(code), a.ID.String(), assetCodeCacheTTL).Err(); err != nil {
			s.log.Warn("asset code cache write failed", zap.Error(err))
		}
	}
	return a, nil
}

func (s *assetService) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Asset, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.r.ListWithCursor(ctx, afterCreatedAt, afterID, limit)
}

func (s *assetService) UpdateState(ctx context.Context, id uuid.UUID, state model.AssetState) (*model.Asset, error) {
	a, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Known requires a tree position; lost and disposed require none. An
	// asset in the tree is taken out via mark-out-of-tree, not here.
	if state != model.AssetStateKnown && a.Node != nil {
		return nil, ErrInvalidTargetState
	}
	if state == model.AssetStateKnown && a.Node == nil {
		return nil, ErrNotPlaced
	}
	a.State = state
	if err := s.r.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assetService) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.r.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.nodeRepo.Transaction(ctx, func(tx repo.NodeRepo) error {
		n, nerr := tx.GetNodeByAssetID(ctx, id)
		switch {
		case nerr == nil:
			if cnt, cerr := tx.ChildCount(ctx, n.ID); cerr != nil {
				return cerr
			} else if cnt > 0 {
				return ErrNonEmptyNode
			}
			if derr := tx.DeleteNode(ctx, n.ID); derr != nil {
				return derr
			}
			if perr := pruneEmptyLocations(ctx, tx, n.ParentID); perr != nil {
				return perr
			}
		case errors.Is(nerr, gorm.ErrRecordNotFound):
			// Out-of-tree asset, nothing to unlink.
		default:
			return nerr
		}
		return tx.DeleteAsset(ctx, id)
	})
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(a.Codes))
	for _, c := range a.Codes {
		codes = append(codes, c.Code)
	}
	invalidateAssetCode(ctx, s.rdb, s.log, codes...)
	return nil
}
