package handler

import (
	"net/http"

	"portal/internal/model"
	"portal/internal/service"
	"portal/internal/state"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles search session HTTP requests
type SessionHandler struct {
	sessions *state.Manager
	orch     *service.Orchestrator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *state.Manager, orch *service.Orchestrator) *SessionHandler {
	return &SessionHandler{sessions: sessions, orch: orch}
}

// selectedEntityView echoes a selection together with its composite list key.
type selectedEntityView struct {
	model.SelectedEntity
	UniqueID string `json:"uniqueId"`
}

// sessionView is the session state as served to clients.
type sessionView struct {
	ID       string               `json:"id"`
	Values   model.FilterState    `json:"values"`
	Selected []selectedEntityView `json:"selected"`
	Options  []model.Listing      `json:"options"`
}

func viewOf(sess *state.Session) sessionView {
	selections := sess.Selections()
	selected := make([]selectedEntityView, 0, len(selections))
	for _, e := range selections {
		selected = append(selected, selectedEntityView{SelectedEntity: e, UniqueID: e.UniqueID()})
	}
	return sessionView{
		ID:       sess.ID(),
		Values:   sess.Values(),
		Selected: selected,
		Options:  sess.Options(),
	}
}

type createSessionRequest struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// Create handles POST /api/v1/sessions. An optional snapshot id rehydrates
// the new session from a previously submitted search.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	sess := h.sessions.Create()
	if req.SnapshotID != "" {
		nav, err := h.orch.Snapshot(c.Request.Context(), req.SnapshotID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load snapshot: " + err.Error()})
			return
		}
		if nav != nil {
			sess.Restore(*nav)
		}
	}

	c.JSON(http.StatusCreated, viewOf(sess))
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// PutFilters handles PUT /api/v1/sessions/:id/filters: the body replaces the
// filter state wholesale, which is how pages reset stale fields.
func (h *SessionHandler) PutFilters(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	var next model.FilterState
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	prev := sess.Values()
	sess.SetValues(next)
	if searchContextChanged(prev, next) {
		h.orch.RefreshSuggestions(c.Request.Context(), sess)
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// PatchFilters handles PATCH /api/v1/sessions/:id/filters: only the fields
// present in the body are applied over the previous state.
func (h *SessionHandler) PatchFilters(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	var patch model.FilterState
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	prev := sess.Values()
	sess.UpdateValues(func(cur model.FilterState) model.FilterState {
		return mergeFilters(cur, patch)
	})
	if searchContextChanged(prev, sess.Values()) {
		h.orch.RefreshSuggestions(c.Request.Context(), sess)
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// AddSelection handles POST /api/v1/sessions/:id/selections
func (h *SessionHandler) AddSelection(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	var entity model.SelectedEntity
	if err := c.ShouldBindJSON(&entity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := sess.AddSelection(entity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// RemoveSelection handles DELETE /api/v1/sessions/:id/selections/:uniqueId
func (h *SessionHandler) RemoveSelection(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	sess.RemoveSelection(c.Param("uniqueId"))
	c.JSON(http.StatusOK, viewOf(sess))
}

// ClearSelections handles DELETE /api/v1/sessions/:id/selections
func (h *SessionHandler) ClearSelections(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	sess.ClearSelections()
	c.JSON(http.StatusOK, viewOf(sess))
}

// Suggestions handles GET /api/v1/sessions/:id/suggestions: refreshes the
// backend suggestion options and pairs them with the region substring
// matches for the current search text.
func (h *SessionHandler) Suggestions(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	options := h.orch.RefreshSuggestions(c.Request.Context(), sess)
	regions := h.orch.RegionMatches(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{
		"options": options,
		"regions": regions,
	})
}

// Submit handles POST /api/v1/sessions/:id/submit. A session without a
// listing type context is not an error; the response just reports that
// nothing was submitted.
func (h *SessionHandler) Submit(c *gin.Context) {
	sess := h.session(c)
	if sess == nil {
		return
	}
	result, ok := h.orch.Submit(c.Request.Context(), sess)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"submitted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submitted":   true,
		"path":        result.Path,
		"snapshot_id": result.SnapshotID,
		"state":       result.State,
	})
}

func (h *SessionHandler) session(c *gin.Context) *state.Session {
	sess := h.sessions.Get(c.Param("id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	return sess
}

// searchContextChanged reports whether the fields that drive the suggestion
// search moved between two states.
func searchContextChanged(prev, next model.FilterState) bool {
	return !strPtrEqual(prev.Search, next.Search) ||
		!idPtrEqual(prev.TypeID, next.TypeID) ||
		!strPtrEqual(prev.TypeName, next.TypeName)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func idPtrEqual(a, b *model.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mergeFilters overlays the fields present in patch onto cur.
func mergeFilters(cur, patch model.FilterState) model.FilterState {
	if patch.Search != nil {
		cur.Search = patch.Search
	}
	if patch.TypeID != nil {
		cur.TypeID = patch.TypeID
	}
	if patch.TypeName != nil {
		cur.TypeName = patch.TypeName
	}
	if patch.PropertyTypeID != nil {
		cur.PropertyTypeID = patch.PropertyTypeID
	}
	if patch.PropertyName != nil {
		cur.PropertyName = patch.PropertyName
	}
	if patch.PriceMin != nil {
		cur.PriceMin = patch.PriceMin
	}
	if patch.PriceMax != nil {
		cur.PriceMax = patch.PriceMax
	}
	if patch.BedroomMin != nil {
		cur.BedroomMin = patch.BedroomMin
	}
	if patch.BedroomMax != nil {
		cur.BedroomMax = patch.BedroomMax
	}
	if patch.AreaMin != nil {
		cur.AreaMin = patch.AreaMin
	}
	if patch.AreaMax != nil {
		cur.AreaMax = patch.AreaMax
	}
	if patch.DeveloperID != nil {
		cur.DeveloperID = patch.DeveloperID
	}
	if patch.DeveloperName != nil {
		cur.DeveloperName = patch.DeveloperName
	}
	if patch.Sort != nil {
		cur.Sort = patch.Sort
	}
	if patch.SortName != nil {
		cur.SortName = patch.SortName
	}
	if patch.IsSale != nil {
		cur.IsSale = patch.IsSale
	}
	if patch.IsFinish != nil {
		cur.IsFinish = patch.IsFinish
	}
	return cur
}
