package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/i18n"
)

// ContractView adds the outstanding balance, the remittance form's default amount
type ContractView struct {
	*entity.Contract
	Outstanding        float64 `json:"outstanding"`
	OutstandingDisplay string  `json:"outstanding_display"`
}

func contractView(c *entity.Contract) ContractView {
	return ContractView{
		Contract:           c,
		Outstanding:        c.Outstanding(),
		OutstandingDisplay: i18n.FormatCurrency(c.Outstanding()),
	}
}

// PendingPayouts is the payout queue with its total
type PendingPayouts struct {
	Items        []*entity.PayoutItem `json:"items"`
	Total        float64              `json:"total"`
	TotalDisplay string               `json:"total_display"`
}

// OffboardRequest is the body of POST /api/staff/:id/offboard
type OffboardRequest struct {
	Date string `json:"date"`
}

// StaffChange is an employee with the notice published for the change
type StaffChange struct {
	Employee *entity.Employee       `json:"employee"`
	Notice   entity.ApprovalRequest `json:"notice"`
}

// ListContracts handles GET /api/contracts
func (h *Handlers) ListContracts(c *gin.Context) {
	contracts, err := h.deps.Contracts.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	views := make([]ContractView, len(contracts))
	for i, contract := range contracts {
		views[i] = contractView(contract)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// GetContract handles GET /api/contracts/:id
func (h *Handlers) GetContract(c *gin.Context) {
	contract, err := h.deps.Contracts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: contractView(contract)})
}

// ListPendingPayouts handles GET /api/payouts/pending
func (h *Handlers) ListPendingPayouts(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.deps.Payouts.ListPending(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	total, err := h.deps.Payouts.TotalPending(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []*entity.PayoutItem{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    PendingPayouts{Items: items, Total: total, TotalDisplay: i18n.FormatCurrency(total)},
	})
}

// ListPayoutHistory handles GET /api/payouts/history
func (h *Handlers) ListPayoutHistory(c *gin.Context) {
	items, err := h.deps.Payouts.ListHistory(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []*entity.PayoutItem{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// ListStaff handles GET /api/staff?status=
func (h *Handlers) ListStaff(c *gin.Context) {
	staff, err := h.deps.HR.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if staff == nil {
		staff = []*entity.Employee{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: staff})
}

// GetEmployee handles GET /api/staff/:id
func (h *Handlers) GetEmployee(c *gin.Context) {
	emp, err := h.deps.HR.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: emp})
}

// Onboard handles POST /api/staff
func (h *Handlers) Onboard(c *gin.Context) {
	var form service.OnboardForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	emp, notice, err := h.deps.HR.Onboard(c.Request.Context(), form)
	h.respondStaffChange(c, http.StatusCreated, emp, notice, err)
}

// Offboard handles POST /api/staff/:id/offboard
func (h *Handlers) Offboard(c *gin.Context) {
	var body OffboardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.badRequest(c, "invalid request body", err)
			return
		}
	}

	emp, notice, err := h.deps.HR.Offboard(c.Request.Context(), c.Param("id"), body.Date)
	h.respondStaffChange(c, http.StatusOK, emp, notice, err)
}

// Reinstate handles POST /api/staff/:id/reinstate
func (h *Handlers) Reinstate(c *gin.Context) {
	emp, err := h.deps.HR.Reinstate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: emp})
}

// respondStaffChange reports a roster change. When only the notice failed the
// change itself stands, so the error rides along with the employee.
func (h *Handlers) respondStaffChange(c *gin.Context, status int, emp *entity.Employee, notice entity.ApprovalRequest, err error) {
	if err != nil && emp == nil {
		h.writeError(c, err)
		return
	}

	resp := Response{Success: true, Data: StaffChange{Employee: emp, Notice: notice}}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}
