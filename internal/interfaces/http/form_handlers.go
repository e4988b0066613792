package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/domain/entity"
)

// SubmitAdvance handles POST /api/forms/advance
func (h *Handlers) SubmitAdvance(c *gin.Context) {
	var form service.AdvanceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	h.respondSubmitted(c, func() (entity.ApprovalRequest, error) {
		return h.deps.Forms.SubmitAdvance(c.Request.Context(), form)
	})
}

// SubmitLeave handles POST /api/forms/leave
func (h *Handlers) SubmitLeave(c *gin.Context) {
	var form service.LeaveForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	h.respondSubmitted(c, func() (entity.ApprovalRequest, error) {
		return h.deps.Forms.SubmitLeave(c.Request.Context(), form)
	})
}

// SubmitExpense handles POST /api/forms/expense
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var form service.ExpenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	h.respondSubmitted(c, func() (entity.ApprovalRequest, error) {
		return h.deps.Forms.SubmitExpense(c.Request.Context(), form)
	})
}

// SubmitRemittance handles POST /api/forms/remittance
func (h *Handlers) SubmitRemittance(c *gin.Context) {
	var form service.RemittanceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	h.respondSubmitted(c, func() (entity.ApprovalRequest, error) {
		return h.deps.Forms.SubmitRemittance(c.Request.Context(), form)
	})
}

// SubmitPayout handles POST /api/forms/payout
func (h *Handlers) SubmitPayout(c *gin.Context) {
	var form service.PayoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	h.respondSubmitted(c, func() (entity.ApprovalRequest, error) {
		return h.deps.Forms.SubmitPayout(c.Request.Context(), form)
	})
}

// AdvanceTotals handles GET /api/forms/advance/totals?requester=
func (h *Handlers) AdvanceTotals(c *gin.Context) {
	requester := c.Query("requester")
	if requester == "" {
		h.badRequest(c, "requester is required", nil)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.deps.Forms.AdvanceTotals(c.Request.Context(), requester, time.Now()),
	})
}

func (h *Handlers) respondSubmitted(c *gin.Context, submit func() (entity.ApprovalRequest, error)) {
	req, err := submit()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: h.approvalView(c.Request.Context(), req)})
}
