package bootstrap

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stocktake-io/stocktake/internal/config"
	"github.com/stocktake-io/stocktake/internal/infra/blob"
	"github.com/stocktake-io/stocktake/internal/infra/cache"
	"github.com/stocktake-io/stocktake/internal/infra/db"
	"github.com/stocktake-io/stocktake/internal/infra/logger"
	"github.com/stocktake-io/stocktake/internal/infra/queue"
	"github.com/stocktake-io/stocktake/internal/modules/handler"
	"github.com/stocktake-io/stocktake/internal/modules/importer"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.Manufacturer{},
				&model.AssetModel{},
				&model.Asset{},
				&model.AssetCode{},
				&model.Node{},
				&model.ChangeSet{},
				&model.AssetEvent{},
			)
		}
		return d, nil
	})

	// Redis (nil when unconfigured; caching off)
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Redis.Addr == "" {
			return nil, nil
		}
		return cache.New(cfg), nil
	})

	// RabbitMQ changeset publisher (nil when unconfigured)
	do.Provide(inj, func(i *do.Injector) (service.ChangePublisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		pub, err := queue.NewPublisher(conn, cfg.RabbitMQ.Queue, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}
		return pub, nil
	})

	// S3 (importer dataset source; nil when unconfigured)
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.S3.Bucket == "" {
			return nil, nil
		}
		return blob.NewS3(context.Background(), cfg)
	})

	// Code strategy registry
	do.Provide(inj, func(i *do.Injector) (*assetcode.Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return assetcode.NewRegistry(assetcode.Config{
			DefaultPrefix: cfg.Codes.DefaultPrefix,
			Prefixes:      cfg.Codes.Prefixes,
			LegacyTag:     cfg.Codes.LegacyTag,
		}), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ManufacturerRepo, error) {
		return repo.NewManufacturerRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AssetModelRepo, error) {
		return repo.NewAssetModelRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AssetRepo, error) {
		return repo.NewAssetRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AssetCodeRepo, error) {
		return repo.NewAssetCodeRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.NodeRepo, error) {
		return repo.NewNodeRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ChangeSetRepo, error) {
		return repo.NewChangeSetRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.ManufacturerService, error) {
		return service.NewManufacturerService(do.MustInvoke[repo.ManufacturerRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AssetModelService, error) {
		return service.NewAssetModelService(do.MustInvoke[repo.AssetModelRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AssetService, error) {
		return service.NewAssetService(
			do.MustInvoke[repo.AssetRepo](i),
			do.MustInvoke[repo.NodeRepo](i),
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.AssetCodeService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewAssetCodeService(
			do.MustInvoke[repo.AssetCodeRepo](i),
			do.MustInvoke[*assetcode.Registry](i),
			cfg.Codes.GenerateAttempts,
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.NodeService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewNodeService(
			do.MustInvoke[repo.NodeRepo](i),
			service.NodePolicy{AutoPromoteContainers: cfg.Tree.AutoPromoteContainers},
			do.MustInvoke[service.ChangePublisher](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ChangeSetService, error) {
		return service.NewChangeSetService(do.MustInvoke[repo.ChangeSetRepo](i)), nil
	})

	// Importer. It runs with its own tree policy: historical datasets
	// always promote container models.
	do.Provide(inj, func(i *do.Injector) (*importer.Reconciler, error) {
		nodes := service.NewNodeService(
			do.MustInvoke[repo.NodeRepo](i),
			service.NodePolicy{AutoPromoteContainers: true},
			do.MustInvoke[service.ChangePublisher](i),
			do.MustInvoke[*zap.Logger](i),
		)
		return importer.NewReconciler(
			do.MustInvoke[repo.ManufacturerRepo](i),
			do.MustInvoke[repo.AssetModelRepo](i),
			do.MustInvoke[repo.NodeRepo](i),
			do.MustInvoke[service.AssetService](i),
			do.MustInvoke[service.AssetCodeService](i),
			nodes,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ManufacturerHandler, error) {
		return handler.NewManufacturerHandler(do.MustInvoke[service.ManufacturerService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.AssetModelHandler, error) {
		return handler.NewAssetModelHandler(do.MustInvoke[service.AssetModelService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.AssetHandler, error) {
		return handler.NewAssetHandler(
			do.MustInvoke[service.AssetService](i),
			do.MustInvoke[service.AssetCodeService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.NodeHandler, error) {
		return handler.NewNodeHandler(do.MustInvoke[service.NodeService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ChangeSetHandler, error) {
		return handler.NewChangeSetHandler(do.MustInvoke[service.ChangeSetService](i)), nil
	})

	return inj
}
