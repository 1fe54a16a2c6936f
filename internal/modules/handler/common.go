package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"gorm.io/gorm"
)

// respondErr maps service errors onto HTTP statuses: validation 400,
// missing rows 404, conflicts 409, everything else 500.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("", err))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, serializer.ConflictErr("duplicate value", err))
	case errors.Is(err, service.ErrCycleDetected),
		errors.Is(err, service.ErrNonEmptyNode),
		errors.Is(err, service.ErrNotContainer),
		errors.Is(err, service.ErrContainerStateConflict),
		errors.Is(err, service.ErrAlreadyPlaced),
		errors.Is(err, service.ErrExhaustedRetries):
		c.JSON(http.StatusConflict, serializer.ConflictErr(err.Error(), err))
	case errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrUnknownCodeType),
		errors.Is(err, service.ErrGenerationUnsupported),
		errors.Is(err, service.ErrInvalidTargetState),
		errors.Is(err, service.ErrNotPlaced):
		c.JSON(http.StatusBadRequest, serializer.ParamErr(err.Error(), err))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}
