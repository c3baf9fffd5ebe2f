package handler

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"face-attend/internal/model/roster_model"

	"github.com/gin-gonic/gin"
)

func (h *Handler) EnrollIdentity(c *gin.Context) {

	externalKey := c.PostForm("externalKey")
	displayName := c.PostForm("displayName")

	if len(externalKey) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "external key cannot be empty"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}

	images, err := readImages(form.File["images"])
	if err != nil {
		log.Println(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded images"})
		return
	}

	identity, err := h.service.Enroll(c.Request.Context(), externalKey, displayName, images)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": identity})
}

func (h *Handler) GetIdentity(c *gin.Context) {

	externalKey := c.Param("key")

	profile, err := h.service.GetIdentity(externalKey)
	if err != nil {
		respondErr(c, err)
		return
	}

	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// readImages loads every uploaded file into memory.
func readImages(headers []*multipart.FileHeader) (images []roster_model.ImageBlob, err error) {

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}

		images = append(images, roster_model.ImageBlob{
			Ref:  header.Filename,
			Data: data,
		})
	}

	return images, nil
}
