package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AssetCodeService interface {
	// Validate checks a code against the rules of its type without
	// touching the database.
	Validate(codeType assetcode.CodeType, code string) error
	// Add assigns a code to an asset. An empty code asks the type's
	// strategy to mint one, retrying on uniqueness collisions up to the
	// configured attempt bound.
	Add(ctx context.Context, assetID uuid.UUID, codeType assetcode.CodeType, code string) (*model.AssetCode, error)
	List(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetCodeService struct {
	r        repo.AssetCodeRepo
	registry *assetcode.Registry
	attempts int
	rdb      *redis.Client
	log      *zap.Logger
}

func NewAssetCodeService(r repo.AssetCodeRepo, registry *assetcode.Registry, attempts int, rdb *redis.Client, log *zap.Logger) AssetCodeService {
	if attempts <= 0 {
		attempts = 10000
	}
	return &assetCodeService{r: r, registry: registry, attempts: attempts, rdb: rdb, log: log}
}

func (s *assetCodeService) Validate(codeType assetcode.CodeType, code string) error {
	st, ok := s.registry.Get(codeType)
	if !ok {
		return ErrUnknownCodeType
	}
	if err := st.Validate(code); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return nil
}

func (s *assetCodeService) Add(ctx context.Context, assetID uuid.UUID, codeType assetcode.CodeType, code string) (*model.AssetCode, error) {
	st, ok := s.registry.Get(codeType)
	if !ok {
		return nil, ErrUnknownCodeType
	}

	if code != "" {
		if err := st.Validate(code); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
		}
		c := &model.AssetCode{Code: code, CodeType: codeType, AssetID: assetID}
		if err := s.r.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	// Mint-and-insert loop. Each insert is a single atomic attempt; a
	// collision with a concurrently assigned code surfaces as
	// gorm.ErrDuplicatedKey and we mint again.
	for i := 0; i < s.attempts; i++ {
		candidate, ok := st.Generate()
		if !ok {
			return nil, ErrGenerationUnsupported
		}
		c := &model.AssetCode{Code: candidate, CodeType: codeType, AssetID: assetID}
		err := s.r.Create(ctx, c)
		if err == nil {
			if i > 0 {
				s.log.Info("asset code minted after collisions",
					zap.String("code", candidate), zap.Int("collisions", i))
			}
			return c, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	s.log.Error("asset code generation exhausted",
		zap.String("code_type", string(codeType)), zap.Int("attempts", s.attempts))
	return nil, ErrExhaustedRetries
}

func (s *assetCodeService) List(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error) {
	return s.r.ListByAsset(ctx, assetID)
}

func (s *assetCodeService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.r.Delete(ctx, id); err != nil {
		return err
	}
	invalidateAssetCode(ctx, s.rdb, s.log, c.Code)
	return nil
}
