package handler

import (
	"errors"
	"log"
	"net/http"

	"face-attend/internal/errs"
	"face-attend/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// respondErr maps the error taxonomy to HTTP statuses.
func respondErr(c *gin.Context, err error) {
	log.Println(err)

	var inputErr *errs.InputError
	var conflictErr *errs.ConflictError
	var validationErr *errs.ValidationError

	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
