package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
)

type AssetModelHandler struct {
	svc service.AssetModelService
}

func NewAssetModelHandler(s service.AssetModelService) *AssetModelHandler {
	return &AssetModelHandler{svc: s}
}

type CreateAssetModelReq struct {
	Name           string `json:"name" binding:"required,max=30"`
	Slug           string `json:"slug" binding:"omitempty,max=100"`
	ManufacturerID string `json:"manufacturer_id" binding:"required,uuid"`
	IsContainer    bool   `json:"is_container"`
}

type SetContainerReq struct {
	IsContainer *bool `json:"is_container" binding:"required"`
}

// CreateAssetModel godoc
//
//	@Summary		Create asset model
//	@Tags			asset-model
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateAssetModelReq	true	"CreateAssetModel payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.AssetModel}
//	@Router			/asset-models [post]
func (h *AssetModelHandler) CreateAssetModel(c *gin.Context) {
	req := CreateAssetModelReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	manufacturerID, err := uuid.Parse(req.ManufacturerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	m := model.AssetModel{
		Name:           req.Name,
		Slug:           req.Slug,
		ManufacturerID: manufacturerID,
		IsContainer:    req.IsContainer,
	}
	if err := h.svc.Create(c.Request.Context(), &m); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: m})
}

// ListAssetModels godoc
//
//	@Summary		List asset models
//	@Tags			asset-model
//	@Produce		json
//	@Param			limit		query	integer	false	"Page size, default 50, max 200"
//	@Param			after_id	query	string	false	"Cursor: id of the last item of the previous page"
//	@Param			after_time	query	string	false	"Cursor: created_at of the last item of the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.AssetModel}
//	@Router			/asset-models [get]
func (h *AssetModelHandler) ListAssetModels(c *gin.Context) {
	req := ListReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	afterTime, afterID := req.cursor()
	items, err := h.svc.List(c.Request.Context(), afterTime, afterID, req.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// GetAssetModel godoc
//
//	@Summary		Get asset model
//	@Description	Get an asset model by id or slug
//	@Tags			asset-model
//	@Produce		json
//	@Param			model_id	path	string	true	"Asset model id or slug"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.AssetModel}
//	@Router			/asset-models/{model_id} [get]
func (h *AssetModelHandler) GetAssetModel(c *gin.Context) {
	key := c.Param("model_id")
	var (
		m   *model.AssetModel
		err error
	)
	if id, perr := uuid.Parse(key); perr == nil {
		m, err = h.svc.Get(c.Request.Context(), id)
	} else {
		m, err = h.svc.GetBySlug(c.Request.Context(), key)
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: m})
}

// SetContainer godoc
//
//	@Summary		Set container capability
//	@Description	Flip whether assets of this model may hold children. Downgrading fails with 409 while placed assets of the model still have children.
//	@Tags			asset-model
//	@Accept			json
//	@Produce		json
//	@Param			model_id	path	string						true	"Asset model ID"
//	@Param			payload		body	handler.SetContainerReq	true	"SetContainer payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Failure		409	{object}	serializer.Response
//	@Router			/asset-models/{model_id}/container [put]
func (h *AssetModelHandler) SetContainer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("model_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := SetContainerReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if err := h.svc.SetContainer(c.Request.Context(), id, *req.IsContainer); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "updated"})
}

// DeleteAssetModel godoc
//
//	@Summary		Delete asset model
//	@Tags			asset-model
//	@Produce		json
//	@Param			model_id	path	string	true	"Asset model ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/asset-models/{model_id} [delete]
func (h *AssetModelHandler) DeleteAssetModel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("model_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "deleted"})
}
