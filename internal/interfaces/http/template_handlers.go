package http

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/application/template"
	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// InsertNodeRequest is the body of POST /api/templates/:id/nodes. Without
// after_index the node is appended; without node a default approver is used.
type InsertNodeRequest struct {
	AfterIndex *int                 `json:"after_index"`
	Node       *entity.WorkflowNode `json:"node"`
}

// UpdateNodeRequest is the body of PATCH /api/templates/:id/nodes/:nodeId.
// Only the fields present are changed.
type UpdateNodeRequest struct {
	Role      *entity.NodeRole     `json:"role"`
	Mode      *entity.DecisionMode `json:"mode"`
	Title     *string              `json:"title"`
	Assignees *[]entity.Assignee   `json:"assignees"`
}

// OpenNodeRequest is the body of PUT /api/templates/:id/editing
type OpenNodeRequest struct {
	NodeID string `json:"node_id" binding:"required"`
}

// EditingSession describes which node of a template is open
type EditingSession struct {
	TemplateID string `json:"template_id"`
	NodeID     string `json:"node_id,omitempty"`
	Open       bool   `json:"open"`
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.deps.Templates.List()})
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	t, err := h.deps.Templates.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: t})
}

// InsertNode handles POST /api/templates/:id/nodes
func (h *Handlers) InsertNode(c *gin.Context) {
	var body InsertNodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	after := math.MaxInt
	if body.AfterIndex != nil {
		after = *body.AfterIndex
	}

	t, node, err := h.deps.Editor.InsertNode(c.Param("id"), after, body.Node)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    gin.H{"template": t, "node": node},
	})
}

// UpdateNode handles PATCH /api/templates/:id/nodes/:nodeId
func (h *Handlers) UpdateNode(c *gin.Context) {
	var body UpdateNodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	changes := template.NodeChanges{
		Role:      body.Role,
		Mode:      body.Mode,
		Title:     body.Title,
		Assignees: body.Assignees,
	}
	if changes.Empty() {
		h.badRequest(c, "nothing to update", nil)
		return
	}

	t, err := h.deps.Editor.UpdateNode(c.Param("id"), c.Param("nodeId"), changes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: t})
}

// RemoveNode handles DELETE /api/templates/:id/nodes/:nodeId
func (h *Handlers) RemoveNode(c *gin.Context) {
	t, err := h.deps.Editor.RemoveNode(c.Param("id"), c.Param("nodeId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: t})
}

// EditingNode handles GET /api/templates/:id/editing
func (h *Handlers) EditingNode(c *gin.Context) {
	templateID := c.Param("id")
	if _, err := h.deps.Templates.Get(templateID); err != nil {
		h.writeError(c, err)
		return
	}

	nodeID, open := h.deps.Editor.EditingNode(templateID)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    EditingSession{TemplateID: templateID, NodeID: nodeID, Open: open},
	})
}

// OpenNode handles PUT /api/templates/:id/editing
func (h *Handlers) OpenNode(c *gin.Context) {
	var body OpenNodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	templateID := c.Param("id")
	if err := h.deps.Editor.OpenNode(templateID, body.NodeID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    EditingSession{TemplateID: templateID, NodeID: body.NodeID, Open: true},
	})
}

// CloseNode handles DELETE /api/templates/:id/editing
func (h *Handlers) CloseNode(c *gin.Context) {
	templateID := c.Param("id")
	h.deps.Editor.CloseNode(templateID)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    EditingSession{TemplateID: templateID},
	})
}
