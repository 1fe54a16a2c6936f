package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
)

type ManufacturerHandler struct {
	svc service.ManufacturerService
}

func NewManufacturerHandler(s service.ManufacturerService) *ManufacturerHandler {
	return &ManufacturerHandler{svc: s}
}

type CreateManufacturerReq struct {
	Name string `json:"name" binding:"required,max=30"`
	Slug string `json:"slug" binding:"omitempty,max=100"`
}

type ListReq struct {
	Limit     int       `form:"limit,default=50" json:"limit" binding:"omitempty,min=1,max=200"`
	AfterID   string    `form:"after_id" json:"after_id"`
	AfterTime time.Time `form:"after_time" json:"after_time" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r ListReq) cursor() (time.Time, uuid.UUID) {
	id, err := uuid.Parse(r.AfterID)
	if err != nil {
		return time.Time{}, uuid.Nil
	}
	return r.AfterTime, id
}

// CreateManufacturer godoc
//
//	@Summary		Create manufacturer
//	@Description	Create a manufacturer; the slug is derived from the name when omitted
//	@Tags			manufacturer
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateManufacturerReq	true	"CreateManufacturer payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Manufacturer}
//	@Router			/manufacturers [post]
func (h *ManufacturerHandler) CreateManufacturer(c *gin.Context) {
	req := CreateManufacturerReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	m := model.Manufacturer{Name: req.Name, Slug: req.Slug}
	if err := h.svc.Create(c.Request.Context(), &m); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: m})
}

// ListManufacturers godoc
//
//	@Summary		List manufacturers
//	@Tags			manufacturer
//	@Produce		json
//	@Param			limit		query	integer	false	"Page size, default 50, max 200"
//	@Param			after_id	query	string	false	"Cursor: id of the last item of the previous page"
//	@Param			after_time	query	string	false	"Cursor: created_at of the last item of the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Manufacturer}
//	@Router			/manufacturers [get]
func (h *ManufacturerHandler) ListManufacturers(c *gin.Context) {
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

// GetManufacturer godoc
//
//	@Summary		Get manufacturer
//	@Description	Get a manufacturer by id or slug
//	@Tags			manufacturer
//	@Produce		json
//	@Param			manufacturer_id	path	string	true	"Manufacturer id or slug"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Manufacturer}
//	@Router			/manufacturers/{manufacturer_id} [get]
func (h *ManufacturerHandler) GetManufacturer(c *gin.Context) {
	key := c.Param("manufacturer_id")
	var (
		m   *model.Manufacturer
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

// DeleteManufacturer godoc
//
//	@Summary		Delete manufacturer
//	@Tags			manufacturer
//	@Produce		json
//	@Param			manufacturer_id	path	string	true	"Manufacturer ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/manufacturers/{manufacturer_id} [delete]
func (h *ManufacturerHandler) DeleteManufacturer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("manufacturer_id"))
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
