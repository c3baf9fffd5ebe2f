package handler

import (
	"log"
	"net/http"

	"face-attend/internal/model/roster_model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ReconcileSession(c *gin.Context) {

	sessionKey := c.Param("session")
	roster := c.PostFormArray("roster")

	form, err := c.MultipartForm()
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}

	probes, err := readImages(form.File["images"])
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded images"})
		return
	}

	outcome, err := h.service.Reconcile(c.Request.Context(), sessionKey, roster, probes)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcome})
}

func (h *Handler) SubmitSession(c *gin.Context) {

	var req *roster_model.AsyncAttendanceRequest

	if err := c.BindJSON(&req); err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionKey := c.Param("session")
	if len(req.Roster) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster cannot be empty"})
		return
	}
	if len(req.ImageRefs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image refs cannot be empty"})
		return
	}

	ack := h.service.Submit(sessionKey, req.Roster, req.ImageRefs)

	c.JSON(http.StatusAccepted, gin.H{"data": ack})
}

func (h *Handler) GetSessionMarks(c *gin.Context) {

	sessionKey := c.Param("session")

	marks, err := h.service.GetSessionMarks(sessionKey)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": marks})
}
