package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (h *handler) createBaby(c *gin.Context) {
	var in models.Baby
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	b, err := h.svc.Babies.Create(c.Request.Context(), actor(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *handler) listBabies(c *gin.Context) {
	out, err := h.svc.Babies.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getBaby(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	b, err := h.svc.Babies.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *handler) updateBaby(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var in models.Baby
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	b, err := h.svc.Babies.Update(c.Request.Context(), actor(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *handler) deleteBaby(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Babies.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *handler) babyPhotoUpload(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	u, err := h.svc.Babies.PhotoUploadURL(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handler) babyPhotoDownload(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	u, err := h.svc.Babies.PhotoDownloadURL(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handler) listBabyMeasurements(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	out, err := h.svc.Measurements.ListByBaby(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) listBabyRecords(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	out, err := h.svc.Records.ListByBaby(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
