package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/i18n"
	"github.com/garyjia/signage-ops/pkg/utils"
)

// AdvanceForm is a cash advance (预支) application
type AdvanceForm struct {
	RequesterID string  `json:"requester_id"`
	Dept        string  `json:"dept"`
	Amount      float64 `json:"amount"`
	Reason      string  `json:"reason"`
	TemplateID  string  `json:"template_id,omitempty"`
}

// LeaveForm is a leave application. Start and End accept RFC 3339,
// "2006-01-02 15:04" or a bare date; a bare end date covers that whole day.
type LeaveForm struct {
	RequesterID string `json:"requester_id"`
	Dept        string `json:"dept"`
	LeaveType   string `json:"leave_type"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Reason      string `json:"reason"`
	TemplateID  string `json:"template_id,omitempty"`
}

// ExpenseItem is one line of an expense claim
type ExpenseItem struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note,omitempty"`
}

// ExpenseForm is an expense reimbursement claim
type ExpenseForm struct {
	RequesterID string        `json:"requester_id"`
	Dept        string        `json:"dept"`
	Items       []ExpenseItem `json:"items"`
	TemplateID  string        `json:"template_id,omitempty"`
}

// RemittanceForm records money received against a customer contract
type RemittanceForm struct {
	RequesterID string  `json:"requester_id"`
	Dept        string  `json:"dept"`
	ContractID  string  `json:"contract_id"`
	Amount      float64 `json:"amount"`
	TemplateID  string  `json:"template_id,omitempty"`
}

// PayoutForm asks for a corporate payment to an outside payee
type PayoutForm struct {
	RequesterID  string  `json:"requester_id"`
	Dept         string  `json:"dept"`
	PayeeName    string  `json:"payee_name"`
	PayeeAccount string  `json:"payee_account"`
	Amount       float64 `json:"amount"`
	Purpose      string  `json:"purpose"`
	TemplateID   string  `json:"template_id,omitempty"`
}

// AdvanceTotals sums a requester's advance requests
type AdvanceTotals struct {
	Month float64 `json:"month"`
	Year  float64 `json:"year"`
}

// FormService turns the application forms into approval requests
type FormService interface {
	SubmitAdvance(ctx context.Context, form AdvanceForm) (entity.ApprovalRequest, error)
	SubmitLeave(ctx context.Context, form LeaveForm) (entity.ApprovalRequest, error)
	SubmitExpense(ctx context.Context, form ExpenseForm) (entity.ApprovalRequest, error)
	SubmitRemittance(ctx context.Context, form RemittanceForm) (entity.ApprovalRequest, error)
	SubmitPayout(ctx context.Context, form PayoutForm) (entity.ApprovalRequest, error)
	AdvanceTotals(ctx context.Context, requesterID string, now time.Time) AdvanceTotals
}

type formServiceImpl struct {
	approvals  ApprovalService
	ledger     port.ContractLedger
	payouts    port.PayoutQueue
	translator *i18n.Translator
	logger     Logger
}

// NewFormService creates a new FormService
func NewFormService(
	approvals ApprovalService,
	ledger port.ContractLedger,
	payouts port.PayoutQueue,
	translator *i18n.Translator,
	logger Logger,
) FormService {
	return &formServiceImpl{
		approvals:  approvals,
		ledger:     ledger,
		payouts:    payouts,
		translator: translator,
		logger:     logger,
	}
}

func (s *formServiceImpl) SubmitAdvance(ctx context.Context, form AdvanceForm) (entity.ApprovalRequest, error) {
	if err := utils.ValidateAmount(form.Amount); err != nil {
		return entity.ApprovalRequest{}, entity.Validationf("advance: %v", err)
	}
	reason := utils.SanitizeString(form.Reason)
	if reason == "" {
		return entity.ApprovalRequest{}, entity.Validationf("advance: reason is required")
	}

	ctx = s.recordLocale(ctx)
	return s.approvals.Submit(ctx, entity.NewApprovalRequest{
		RequesterID:   form.RequesterID,
		RequesterDept: form.Dept,
		Kind:          entity.KindAdvancePayment,
		AmountDisplay: i18n.FormatCurrency(form.Amount),
		Detail:        s.translator.T(ctx, "detail.advance", map[string]interface{}{"Reason": reason}),
		TemplateID:    form.TemplateID,
		Metadata:      &entity.Metadata{Amount: entity.Float(form.Amount)},
	})
}

var leaveLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

const dateLayout = "2006-01-02"

// parseLeaveTime reports whether value was a bare date
func parseLeaveTime(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		return t, true, nil
	}
	for _, layout := range leaveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised time %q", value)
}

// LeaveDays converts a leave span to days, rounded up to the half day
func LeaveDays(start, end time.Time) float64 {
	halfDays := math.Ceil(end.Sub(start).Hours() / 12)
	return halfDays / 2
}

func (s *formServiceImpl) SubmitLeave(ctx context.Context, form LeaveForm) (entity.ApprovalRequest, error) {
	reason := utils.SanitizeString(form.Reason)
	if reason == "" {
		return entity.ApprovalRequest{}, entity.Validationf("leave: reason is required")
	}
	start, _, err := parseLeaveTime(form.Start)
	if err != nil {
		return entity.ApprovalRequest{}, entity.Validationf("leave start: %v", err)
	}
	end, wholeDay, err := parseLeaveTime(form.End)
	if err != nil {
		return entity.ApprovalRequest{}, entity.Validationf("leave end: %v", err)
	}
	if wholeDay {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return entity.ApprovalRequest{}, entity.Validationf("leave: end %s is not after start %s", form.End, form.Start)
	}

	leaveType := utils.SanitizeString(form.LeaveType)
	if leaveType == "" {
		leaveType = "事假"
	}
	days := LeaveDays(start, end)

	ctx = s.recordLocale(ctx)
	return s.approvals.Submit(ctx, entity.NewApprovalRequest{
		RequesterID:   form.RequesterID,
		RequesterDept: form.Dept,
		Kind:          entity.KindLeave,
		AmountDisplay: s.translator.FormatDays(ctx, days),
		Detail: s.translator.T(ctx, "detail.leave", map[string]interface{}{
			"LeaveType": leaveType,
			"Start":     strings.TrimSpace(form.Start),
			"End":       strings.TrimSpace(form.End),
			"Reason":    reason,
		}),
		TemplateID: form.TemplateID,
		Metadata:   &entity.Metadata{Days: entity.Float(days)},
	})
}

func (s *formServiceImpl) SubmitExpense(ctx context.Context, form ExpenseForm) (entity.ApprovalRequest, error) {
	if len(form.Items) == 0 {
		return entity.ApprovalRequest{}, entity.Validationf("expense: at least one item is required")
	}

	var total float64
	categories := make([]string, 0, len(form.Items))
	for i, item := range form.Items {
		if err := utils.ValidateAmount(item.Amount); err != nil {
			return entity.ApprovalRequest{}, entity.Validationf("expense item %d: %v", i+1, err)
		}
		category := utils.SanitizeString(item.Category)
		if category == "" {
			return entity.ApprovalRequest{}, entity.Validationf("expense item %d: category is required", i+1)
		}
		total += item.Amount
		categories = append(categories, category)
	}

	ctx = s.recordLocale(ctx)
	return s.approvals.Submit(ctx, entity.NewApprovalRequest{
		RequesterID:   form.RequesterID,
		RequesterDept: form.Dept,
		Kind:          entity.KindExpenseReimbursement,
		AmountDisplay: i18n.FormatCurrency(total),
		Detail: s.translator.T(ctx, "detail.expense", map[string]interface{}{
			"Categories": strings.Join(categories, "、"),
		}),
		TemplateID: form.TemplateID,
		Metadata:   &entity.Metadata{Amount: entity.Float(total)},
	})
}

func (s *formServiceImpl) SubmitRemittance(ctx context.Context, form RemittanceForm) (entity.ApprovalRequest, error) {
	if err := utils.ValidateAmount(form.Amount); err != nil {
		return entity.ApprovalRequest{}, entity.Validationf("remittance: %v", err)
	}
	contract, err := s.ledger.Get(ctx, form.ContractID)
	if err != nil {
		if errors.Is(err, entity.ErrContractNotFound) {
			return entity.ApprovalRequest{}, fmt.Errorf("%w: %w", entity.ErrValidation, err)
		}
		return entity.ApprovalRequest{}, fmt.Errorf("load contract %s: %w", form.ContractID, err)
	}

	ctx = s.recordLocale(ctx)
	return s.approvals.Submit(ctx, entity.NewApprovalRequest{
		RequesterID:     form.RequesterID,
		RequesterDept:   form.Dept,
		Kind:            entity.KindContractRemittance,
		AmountDisplay:   i18n.FormatCurrency(form.Amount),
		Detail:          s.translator.T(ctx, "detail.remittance", map[string]interface{}{"Title": contract.Title}),
		RelatedEntityID: contract.ID,
		TemplateID:      form.TemplateID,
		Metadata:        &entity.Metadata{Amount: entity.Float(form.Amount)},
	})
}

// SubmitPayout queues the payment under the new request's id before the
// request is stored, so a request never waits on a missing queue item
func (s *formServiceImpl) SubmitPayout(ctx context.Context, form PayoutForm) (entity.ApprovalRequest, error) {
	if err := utils.ValidateAmount(form.Amount); err != nil {
		return entity.ApprovalRequest{}, entity.Validationf("payout: %v", err)
	}
	payee := utils.SanitizeString(form.PayeeName)
	if payee == "" {
		return entity.ApprovalRequest{}, entity.Validationf("payout: payee name is required")
	}
	account := utils.SanitizeString(form.PayeeAccount)
	purpose := utils.SanitizeString(form.Purpose)

	ctx = s.recordLocale(ctx)
	enqueue := func(req entity.ApprovalRequest) error {
		item := &entity.PayoutItem{
			RequestID:    req.ID,
			PayeeName:    payee,
			PayeeAccount: account,
			Amount:       form.Amount,
			Purpose:      purpose,
			EnqueuedAt:   req.CreatedAt,
		}
		if err := s.payouts.Enqueue(ctx, item); err != nil {
			s.logger.Error("Failed to enqueue payout", "error", err, "id", req.ID)
			return fmt.Errorf("enqueue payout for %s: %w", req.ID, err)
		}
		return nil
	}

	req, err := s.approvals.SubmitWith(ctx, entity.NewApprovalRequest{
		RequesterID:   form.RequesterID,
		RequesterDept: form.Dept,
		Kind:          entity.KindCorporatePayout,
		AmountDisplay: i18n.FormatCurrency(form.Amount),
		Detail: s.translator.T(ctx, "detail.payout", map[string]interface{}{
			"Payee":   payee,
			"Purpose": purpose,
		}),
		TemplateID: form.TemplateID,
		Metadata: &entity.Metadata{
			Amount:       entity.Float(form.Amount),
			PayeeName:    payee,
			PayeeAccount: account,
		},
	}, enqueue)
	if err != nil {
		return entity.ApprovalRequest{}, err
	}

	s.logger.Info("Payout queued", "id", req.ID, "payee", payee, "amount", form.Amount)
	return req, nil
}

// AdvanceTotals sums every advance the requester filed in now's month and year,
// whatever its status
func (s *formServiceImpl) AdvanceTotals(ctx context.Context, requesterID string, now time.Time) AdvanceTotals {
	var totals AdvanceTotals
	advances := s.approvals.List(ctx, ListFilter{RequesterID: requesterID, Kind: entity.KindAdvancePayment})
	for _, r := range advances {
		amount, ok := r.Metadata.AmountValue()
		if !ok {
			continue
		}
		created := r.CreatedAt.In(now.Location())
		if created.Year() != now.Year() {
			continue
		}
		totals.Year += amount
		if created.Month() == now.Month() {
			totals.Month += amount
		}
	}
	return totals
}

// recordLocale pins stored request texts to the default locale; display
// labels are localized per reader instead
func (s *formServiceImpl) recordLocale(ctx context.Context) context.Context {
	return i18n.WithLocale(ctx, s.translator.DefaultLocale())
}
