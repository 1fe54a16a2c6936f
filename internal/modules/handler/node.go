package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
)

type NodeHandler struct {
	svc service.NodeService
}

func NewNodeHandler(s service.NodeService) *NodeHandler {
	return &NodeHandler{svc: s}
}

type CreateLocationReq struct {
	Name     string `json:"name" binding:"required,max=100"`
	ParentID string `json:"parent_id" binding:"omitempty,uuid"`
}

type AttachAssetReq struct {
	AssetID  string `json:"asset_id" binding:"required,uuid"`
	ParentID string `json:"parent_id" binding:"omitempty,uuid"`
	User     string `json:"user" binding:"omitempty,max=100"`
	Comment  string `json:"comment" binding:"omitempty,max=500"`
}

type MoveNodeReq struct {
	ParentID string `json:"parent_id" binding:"omitempty,uuid"`
	User     string `json:"user" binding:"omitempty,max=100"`
	Comment  string `json:"comment" binding:"omitempty,max=500"`
}

type MarkOutOfTreeReq struct {
	Recursive bool   `json:"recursive"`
	State     string `json:"state" binding:"required,oneof=L D"`
	User      string `json:"user" binding:"omitempty,max=100"`
	Comment   string `json:"comment" binding:"omitempty,max=500"`
}

type NodeDetail struct {
	Node      *model.Node  `json:"node"`
	Ancestors []model.Node `json:"ancestors"`
	Depth     int          `json:"depth"`
}

func optionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateLocation godoc
//
//	@Summary		Create location node
//	@Description	Add a named location at the root or under a parent node
//	@Tags			node
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateLocationReq	true	"CreateLocation payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Node}
//	@Failure		409	{object}	serializer.Response
//	@Router			/nodes/locations [post]
func (h *NodeHandler) CreateLocation(c *gin.Context) {
	req := CreateLocationReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	parentID, err := optionalUUID(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	n, err := h.svc.CreateLocation(c.Request.Context(), req.Name, parentID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: n})
}

// AttachAsset godoc
//
//	@Summary		Attach asset
//	@Description	Place an out-of-tree asset at the root or under a container-capable parent, marking it known
//	@Tags			node
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.AttachAssetReq	true	"AttachAsset payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Node}
//	@Failure		409	{object}	serializer.Response
//	@Router			/nodes/attach [post]
func (h *NodeHandler) AttachAsset(c *gin.Context) {
	req := AttachAssetReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	assetID, err := uuid.Parse(req.AssetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	parentID, err := optionalUUID(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	n, err := h.svc.AttachAsset(c.Request.Context(), assetID, parentID,
		service.Actor{User: req.User, Comment: req.Comment})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: n})
}

// MoveNode godoc
//
//	@Summary		Move node
//	@Description	Reparent a node. Moving a node into its own subtree fails with 409 and mutates nothing.
//	@Tags			node
//	@Accept			json
//	@Produce		json
//	@Param			node_id	path	string				true	"Node ID"
//	@Param			payload	body	handler.MoveNodeReq	true	"MoveNode payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Node}
//	@Failure		409	{object}	serializer.Response
//	@Router			/nodes/{node_id}/move [put]
func (h *NodeHandler) MoveNode(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("node_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := MoveNodeReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	parentID, err := optionalUUID(req.ParentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	n, err := h.svc.Move(c.Request.Context(), nodeID, parentID,
		service.Actor{User: req.User, Comment: req.Comment})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: n})
}

// MarkOutOfTree godoc
//
//	@Summary		Mark node out of tree
//	@Description	Remove a node, transitioning linked assets to lost or disposed. Without recursive, a node with children is refused with 409.
//	@Tags			node
//	@Accept			json
//	@Produce		json
//	@Param			node_id	path	string						true	"Node ID"
//	@Param			payload	body	handler.MarkOutOfTreeReq	true	"MarkOutOfTree payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Failure		409	{object}	serializer.Response
//	@Router			/nodes/{node_id}/mark-out-of-tree [post]
func (h *NodeHandler) MarkOutOfTree(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("node_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := MarkOutOfTreeReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	err = h.svc.MarkOutOfTree(c.Request.Context(), nodeID, req.Recursive,
		model.AssetState(req.State),
		service.Actor{User: req.User, Comment: req.Comment})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "removed"})
}

// GetNode godoc
//
//	@Summary		Get node
//	@Description	Get a node with its ancestor chain, root first
//	@Tags			node
//	@Produce		json
//	@Param			node_id	path	string	true	"Node ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.NodeDetail}
//	@Failure		404	{object}	serializer.Response
//	@Router			/nodes/{node_id} [get]
func (h *NodeHandler) GetNode(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("node_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	n, ancestors, err := h.svc.Get(c.Request.Context(), nodeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: NodeDetail{
		Node:      n,
		Ancestors: ancestors,
		Depth:     len(ancestors),
	}})
}

// ListChildren godoc
//
//	@Summary		List node children
//	@Tags			node
//	@Produce		json
//	@Param			node_id	path	string	true	"Node ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Node}
//	@Router			/nodes/{node_id}/children [get]
func (h *NodeHandler) ListChildren(c *gin.Context) {
	nodeID, err := uuid.Parse(c.Param("node_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	items, err := h.svc.Children(c.Request.Context(), nodeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// FindNodeByCode godoc
//
//	@Summary		Find node by asset code
//	@Tags			node
//	@Produce		json
//	@Param			asset_code	path	string	true	"Asset code"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Node}
//	@Failure		404	{object}	serializer.Response
//	@Router			/nodes/by-code/{asset_code} [get]
func (h *NodeHandler) FindNodeByCode(c *gin.Context) {
	n, err := h.svc.FindByAssetCode(c.Request.Context(), c.Param("asset_code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: n})
}
