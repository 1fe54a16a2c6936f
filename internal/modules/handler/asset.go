package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"gorm.io/datatypes"
)

type AssetHandler struct {
	svc   service.AssetService
	codes service.AssetCodeService
}

func NewAssetHandler(s service.AssetService, codes service.AssetCodeService) *AssetHandler {
	return &AssetHandler{svc: s, codes: codes}
}

type CreateAssetReq struct {
	Name         string                 `json:"name" binding:"omitempty,max=30"`
	AssetModelID string                 `json:"asset_model_id" binding:"required,uuid"`
	ExtraData    map[string]interface{} `json:"extra_data"`
}

type UpdateAssetStateReq struct {
	State string `json:"state" binding:"required,oneof=K L D"`
}

type AddAssetCodeReq struct {
	CodeType string `json:"code_type" binding:"required,oneof=A D L"`
	// Code left empty asks the strategy to mint one.
	Code string `json:"code"`
}

// CreateAsset godoc
//
//	@Summary		Create asset
//	@Description	Create an asset. It starts lost (out of tree); attach it to a node to mark it known.
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateAssetReq	true	"CreateAsset payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Asset}
//	@Router			/assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	req := CreateAssetReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	modelID, err := uuid.Parse(req.AssetModelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	a := model.Asset{
		AssetModelID: modelID,
		State:        model.AssetStateLost,
		ExtraData:    datatypes.JSONMap(req.ExtraData),
	}
	if req.Name != "" {
		a.Name = &req.Name
	}
	if err := h.svc.Create(c.Request.Context(), &a); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: a})
}

// ListAssets godoc
//
//	@Summary		List assets
//	@Tags			asset
//	@Produce		json
//	@Param			limit		query	integer	false	"Page size, default 50, max 200"
//	@Param			after_id	query	string	false	"Cursor: id of the last item of the previous page"
//	@Param			after_time	query	string	false	"Cursor: created_at of the last item of the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Asset}
//	@Router			/assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
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

// GetAsset godoc
//
//	@Summary		Get asset
//	@Description	Resolve an asset by id or any of its codes
//	@Tags			asset
//	@Produce		json
//	@Param			asset_id	path	string	true	"Asset id or code"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Asset}
//	@Failure		404	{object}	serializer.Response
//	@Router			/assets/{asset_id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	a, err := h.svc.FindByCode(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: a})
}

// UpdateAssetState godoc
//
//	@Summary		Update asset state
//	@Description	Set state K (known), L (lost) or D (disposed). Assets in the tree must be taken out first; known requires placement.
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Param			asset_id	path	string							true	"Asset ID"
//	@Param			payload		body	handler.UpdateAssetStateReq	true	"UpdateAssetState payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Asset}
//	@Router			/assets/{asset_id}/state [put]
func (h *AssetHandler) UpdateAssetState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("asset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := UpdateAssetStateReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	a, err := h.svc.UpdateState(c.Request.Context(), id, model.AssetState(req.State))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: a})
}

// DeleteAsset godoc
//
//	@Summary		Delete asset
//	@Description	Delete an asset, its codes, its tree node and any location chain the removal emptied
//	@Tags			asset
//	@Produce		json
//	@Param			asset_id	path	string	true	"Asset ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Failure		409	{object}	serializer.Response
//	@Router			/assets/{asset_id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("asset_id"))
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

// AddAssetCode godoc
//
//	@Summary		Add asset code
//	@Description	Assign a code to an asset. Omit the code to have the type's strategy mint one.
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Param			asset_id	path	string					true	"Asset ID"
//	@Param			payload		body	handler.AddAssetCodeReq	true	"AddAssetCode payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.AssetCode}
//	@Failure		400	{object}	serializer.Response
//	@Failure		409	{object}	serializer.Response
//	@Router			/assets/{asset_id}/codes [post]
func (h *AssetHandler) AddAssetCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("asset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := AddAssetCodeReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	code, err := h.codes.Add(c.Request.Context(), id, assetcode.CodeType(req.CodeType), req.Code)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: code})
}

// ListAssetCodes godoc
//
//	@Summary		List asset codes
//	@Tags			asset
//	@Produce		json
//	@Param			asset_id	path	string	true	"Asset ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.AssetCode}
//	@Router			/assets/{asset_id}/codes [get]
func (h *AssetHandler) ListAssetCodes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("asset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.codes.List(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// DeleteAssetCode godoc
//
//	@Summary		Delete asset code
//	@Tags			asset
//	@Produce		json
//	@Param			asset_id	path	string	true	"Asset ID"
//	@Param			code_id		path	string	true	"Asset code ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/assets/{asset_id}/codes/{code_id} [delete]
func (h *AssetHandler) DeleteAssetCode(c *gin.Context) {
	codeID, err := uuid.Parse(c.Param("code_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	if err := h.codes.Delete(c.Request.Context(), codeID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "deleted"})
}
