package main

//	@title			Stocktake API
//	@version		1.0
//	@description	Asset and inventory tracking API.
//	@schemes		http https
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Static API bearer token (e.g., "Bearer xxxx")

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"github.com/stocktake-io/stocktake/internal/bootstrap"
	"github.com/stocktake-io/stocktake/internal/config"
	"github.com/stocktake-io/stocktake/internal/modules/handler"
	"github.com/stocktake-io/stocktake/internal/router"
	"go.uber.org/zap"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)

	// init gin
	gin.SetMode(cfg.App.Env)

	engine := router.NewRouter(router.RouterDeps{
		Config:              cfg,
		Log:                 log,
		ManufacturerHandler: do.MustInvoke[*handler.ManufacturerHandler](inj),
		AssetModelHandler:   do.MustInvoke[*handler.AssetModelHandler](inj),
		AssetHandler:        do.MustInvoke[*handler.AssetHandler](inj),
		NodeHandler:         do.MustInvoke[*handler.NodeHandler](inj),
		ChangeSetHandler:    do.MustInvoke[*handler.ChangeSetHandler](inj),
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr)
		log.Sugar().Infow("swagger url", "url", addr+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}
	log.Sugar().Info("server exited")
}
