package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/application/template"
	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// TemplateCatalog lists workflow templates
type TemplateCatalog interface {
	List() []entity.WorkflowTemplate
	Get(id string) (entity.WorkflowTemplate, error)
}

// NodeEditor edits the nodes of a workflow template
type NodeEditor interface {
	InsertNode(templateID string, afterIndex int, node *entity.WorkflowNode) (entity.WorkflowTemplate, entity.WorkflowNode, error)
	RemoveNode(templateID, nodeID string) (entity.WorkflowTemplate, error)
	UpdateNode(templateID, nodeID string, changes template.NodeChanges) (entity.WorkflowTemplate, error)
	OpenNode(templateID, nodeID string) error
	CloseNode(templateID string)
	EditingNode(templateID string) (string, bool)
}

// WorkbookExporter renders the registry and payout queue as a spreadsheet
type WorkbookExporter interface {
	Workbook(ctx context.Context, approvals []entity.ApprovalRequest, payouts []*entity.PayoutItem) (*bytes.Buffer, error)
}

// HealthReporter reports component status for /health
type HealthReporter interface {
	Ready() bool
	Health() map[string]string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ApprovalView is a request with labels in the reader's language
type ApprovalView struct {
	entity.ApprovalRequest
	KindLabel   string `json:"kind_label"`
	StatusLabel string `json:"status_label"`
}

// DecisionRequest is the body of POST /api/approvals/:id/decision
type DecisionRequest struct {
	Decision   entity.Decision `json:"decision" binding:"required"`
	ReviewerID string          `json:"reviewer_id"`
}

// ListApprovalsQuery represents query parameters for listing requests
type ListApprovalsQuery struct {
	RequesterID string `form:"requester"`
	Status      string `form:"status"`
	Kind        string `form:"kind"`
}

// Version is reported by /health
const Version = "1.0.0"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}
	status := http.StatusOK
	if h.deps.Health != nil {
		response.Components = h.deps.Health.Health()
		if !h.deps.Health.Ready() {
			response.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// ListApprovals handles GET /api/approvals
func (h *Handlers) ListApprovals(c *gin.Context) {
	var q ListApprovalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	filter := service.ListFilter{
		RequesterID: q.RequesterID,
		Status:      entity.Status(q.Status),
		Kind:        entity.Kind(q.Kind),
	}
	if q.Status != "" && !filter.Status.IsValid() {
		h.badRequest(c, fmt.Sprintf("unknown status %q", q.Status), nil)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.approvalViews(c.Request.Context(), h.deps.Approvals.List(c.Request.Context(), filter)),
	})
}

// ListPending handles GET /api/approvals/pending, the reviewer inbox
func (h *Handlers) ListPending(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.approvalViews(ctx, h.deps.Approvals.ListPending(ctx)),
	})
}

// Stats handles GET /api/approvals/stats
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.deps.Approvals.Stats(c.Request.Context()),
	})
}

// GetApproval handles GET /api/approvals/:id
func (h *Handlers) GetApproval(c *gin.Context) {
	ctx := c.Request.Context()
	req, err := h.deps.Approvals.Get(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.approvalView(ctx, req)})
}

// GetHistory handles GET /api/approvals/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	entries, err := h.deps.Approvals.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*entity.ApprovalHistory{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// SubmitApproval handles POST /api/approvals for kinds without a dedicated form
func (h *Handlers) SubmitApproval(c *gin.Context) {
	var body entity.NewApprovalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	req, err := h.deps.Approvals.Submit(ctx, body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: h.approvalView(ctx, req)})
}

// Decide handles POST /api/approvals/:id/decision. A decision whose side
// effects failed is still committed, so it answers 200 with the error attached.
func (h *Handlers) Decide(c *gin.Context) {
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	updated, err := h.deps.Approvals.Decide(ctx, c.Param("id"), body.Decision, body.ReviewerID)
	if err != nil && !errors.Is(err, entity.ErrSideEffectDispatch) {
		h.writeError(c, err)
		return
	}

	resp := Response{Success: true, Data: h.approvalView(ctx, updated)}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ExportWorkbook handles GET /api/approvals/export
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	ctx := c.Request.Context()
	payouts, err := h.deps.Payouts.ListPending(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	buf, err := h.deps.Exporter.Workbook(ctx, h.deps.Approvals.List(ctx, service.ListFilter{}), payouts)
	if err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("approvals-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handlers) approvalView(ctx context.Context, req entity.ApprovalRequest) ApprovalView {
	view := ApprovalView{ApprovalRequest: req}
	if h.deps.Translator != nil {
		view.KindLabel = h.deps.Translator.KindLabel(ctx, req.Kind)
		view.StatusLabel = h.deps.Translator.StatusLabel(ctx, req.Status)
	}
	return view
}

func (h *Handlers) approvalViews(ctx context.Context, reqs []entity.ApprovalRequest) []ApprovalView {
	views := make([]ApprovalView, len(reqs))
	for i, r := range reqs {
		views[i] = h.approvalView(ctx, r)
	}
	return views
}

// writeError maps the error taxonomy to a status code. Validation is checked
// first: a form naming a missing contract is a bad request, not a 404.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound),
		errors.Is(err, entity.ErrContractNotFound),
		errors.Is(err, entity.ErrPayoutNotFound),
		errors.Is(err, entity.ErrEmployeeNotFound),
		errors.Is(err, entity.ErrTemplateNotFound),
		errors.Is(err, entity.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidState):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.FullPath())
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "path", c.FullPath())
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
