package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/gin-gonic/gin"
)

// measurements

func (h *handler) createMeasurement(c *gin.Context) {
	var in models.Measurement
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	m, err := h.svc.Measurements.Create(c.Request.Context(), actor(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *handler) listMeasurements(c *gin.Context) {
	out, err := h.svc.Measurements.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getMeasurement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	m, err := h.svc.Measurements.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *handler) updateMeasurement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var in models.Measurement
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	m, err := h.svc.Measurements.Update(c.Request.Context(), actor(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *handler) deleteMeasurement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Measurements.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// records

func (h *handler) createRecord(c *gin.Context) {
	var in models.Record
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	r, err := h.svc.Records.Create(c.Request.Context(), actor(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handler) listRecords(c *gin.Context) {
	out, err := h.svc.Records.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getRecord(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	r, err := h.svc.Records.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) updateRecord(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var in models.Record
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	r, err := h.svc.Records.Update(c.Request.Context(), actor(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) deleteRecord(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.svc.Records.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// growth guides

func (h *handler) listGrowthGuides(c *gin.Context) {
	out, err := h.svc.GrowthGuides.List(c.Request.Context(), actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getGrowthGuide(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	g, err := h.svc.GrowthGuides.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handler) updateGrowthGuide(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var in models.GrowthGuide
	if err := bindJSON(c, &in); err != nil {
		h.writeError(c, err)
		return
	}
	g, err := h.svc.GrowthGuides.Update(c.Request.Context(), actor(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
