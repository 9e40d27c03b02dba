package handler

import (
	"net/http"

	"portal/internal/cache"
	"portal/internal/model"
	"portal/internal/service"

	"github.com/gin-gonic/gin"
)

// MetaHandler serves the cached filter metadata and the URL grammar
// resolution endpoint.
type MetaHandler struct {
	meta *cache.Store
	orch *service.Orchestrator
}

// NewMetaHandler creates a new metadata handler
func NewMetaHandler(meta *cache.Store, orch *service.Orchestrator) *MetaHandler {
	return &MetaHandler{meta: meta, orch: orch}
}

// Filters handles GET /api/v1/filters
func (h *MetaHandler) Filters(c *gin.Context) {
	meta, err := h.meta.Filter(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Filter metadata unavailable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filter": meta})
}

// Developers handles GET /api/v1/filters/developers
func (h *MetaHandler) Developers(c *gin.Context) {
	devs, err := h.meta.Developers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Developer metadata unavailable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"developers": devs})
}

// Regions handles GET /api/v1/regions
func (h *MetaHandler) Regions(c *gin.Context) {
	regions, err := h.meta.Regions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Region list unavailable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"region": regions})
}

// Resolve handles GET /api/v1/resolve?path=...&type_id=...&snapshot_id=...
//
// It translates an SEO path (plus optional snapshot state) into the filter
// state a listing page loads with. Unparseable segments are ignored, so the
// endpoint always answers 200 with a best-effort partial state.
func (h *MetaHandler) Resolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing path parameter"})
		return
	}
	typeID := model.ID(c.Query("type_id"))
	snapshotID := c.Query("snapshot_id")

	filters := h.orch.Resolve(c.Request.Context(), path, snapshotID, typeID)
	c.JSON(http.StatusOK, gin.H{"filters": filters})
}

// Snapshot handles GET /api/v1/snapshots/:id
func (h *MetaHandler) Snapshot(c *gin.Context) {
	nav, err := h.orch.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get snapshot: " + err.Error()})
		return
	}
	if nav == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
		return
	}
	c.JSON(http.StatusOK, nav)
}
