package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/stocktake-io/stocktake/docs"
	"github.com/stocktake-io/stocktake/internal/config"
	"github.com/stocktake-io/stocktake/internal/middleware"
	"github.com/stocktake-io/stocktake/internal/modules/handler"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
)

type RouterDeps struct {
	Config              *config.Config
	Log                 *zap.Logger
	ManufacturerHandler *handler.ManufacturerHandler
	AssetModelHandler   *handler.AssetModelHandler
	AssetHandler        *handler.AssetHandler
	NodeHandler         *handler.NodeHandler
	ChangeSetHandler    *handler.ChangeSetHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.BearerAuth(d.Config))

		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		manufacturer := v1.Group("/manufacturers")
		{
			manufacturer.GET("", d.ManufacturerHandler.ListManufacturers)
			manufacturer.POST("", d.ManufacturerHandler.CreateManufacturer)
			manufacturer.GET("/:manufacturer_id", d.ManufacturerHandler.GetManufacturer)
			manufacturer.DELETE("/:manufacturer_id", d.ManufacturerHandler.DeleteManufacturer)
		}

		assetModel := v1.Group("/asset-models")
		{
			assetModel.GET("", d.AssetModelHandler.ListAssetModels)
			assetModel.POST("", d.AssetModelHandler.CreateAssetModel)
			assetModel.GET("/:model_id", d.AssetModelHandler.GetAssetModel)
			assetModel.PUT("/:model_id/container", d.AssetModelHandler.SetContainer)
			assetModel.DELETE("/:model_id", d.AssetModelHandler.DeleteAssetModel)
		}

		asset := v1.Group("/assets")
		{
			asset.GET("", d.AssetHandler.ListAssets)
			asset.POST("", d.AssetHandler.CreateAsset)
			asset.GET("/:asset_id", d.AssetHandler.GetAsset)
			asset.DELETE("/:asset_id", d.AssetHandler.DeleteAsset)

			asset.PUT("/:asset_id/state", d.AssetHandler.UpdateAssetState)

			asset.POST("/:asset_id/codes", d.AssetHandler.AddAssetCode)
			asset.GET("/:asset_id/codes", d.AssetHandler.ListAssetCodes)
			asset.DELETE("/:asset_id/codes/:code_id", d.AssetHandler.DeleteAssetCode)

			asset.GET("/:asset_id/events", d.ChangeSetHandler.ListAssetEvents)
		}

		node := v1.Group("/nodes")
		{
			node.POST("/locations", d.NodeHandler.CreateLocation)
			node.POST("/attach", d.NodeHandler.AttachAsset)
			node.GET("/by-code/:asset_code", d.NodeHandler.FindNodeByCode)

			node.GET("/:node_id", d.NodeHandler.GetNode)
			node.GET("/:node_id/children", d.NodeHandler.ListChildren)
			node.PUT("/:node_id/move", d.NodeHandler.MoveNode)
			node.POST("/:node_id/mark-out-of-tree", d.NodeHandler.MarkOutOfTree)
		}

		changeset := v1.Group("/changesets")
		{
			changeset.GET("", d.ChangeSetHandler.ListChangeSets)
			changeset.GET("/:changeset_id", d.ChangeSetHandler.GetChangeSet)
		}
	}
	return r
}
