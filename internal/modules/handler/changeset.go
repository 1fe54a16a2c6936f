package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
)

type ChangeSetHandler struct {
	svc service.ChangeSetService
}

func NewChangeSetHandler(s service.ChangeSetService) *ChangeSetHandler {
	return &ChangeSetHandler{svc: s}
}

// ListChangeSets godoc
//
//	@Summary		List changesets
//	@Description	List changesets newest first
//	@Tags			changeset
//	@Produce		json
//	@Param			limit		query	integer	false	"Page size, default 50, max 200"
//	@Param			after_id	query	string	false	"Cursor: id of the last item of the previous page"
//	@Param			after_time	query	string	false	"Cursor: timestamp of the last item of the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.ChangeSet}
//	@Router			/changesets [get]
func (h *ChangeSetHandler) ListChangeSets(c *gin.Context) {
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

// GetChangeSet godoc
//
//	@Summary		Get changeset
//	@Tags			changeset
//	@Produce		json
//	@Param			changeset_id	path	string	true	"ChangeSet ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ChangeSet}
//	@Failure		404	{object}	serializer.Response
//	@Router			/changesets/{changeset_id} [get]
func (h *ChangeSetHandler) GetChangeSet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("changeset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	cs, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: cs})
}

// ListAssetEvents godoc
//
//	@Summary		List asset events
//	@Description	Full placement history of one asset, oldest first
//	@Tags			changeset
//	@Produce		json
//	@Param			asset_id	path	string	true	"Asset ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.AssetEvent}
//	@Router			/assets/{asset_id}/events [get]
func (h *ChangeSetHandler) ListAssetEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("asset_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.svc.EventsByAsset(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}
