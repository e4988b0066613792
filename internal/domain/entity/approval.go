package entity

import (
	"strings"
	"time"
)

// Kind is the category of an approval request. The set is open-ended; kinds
// without a side-effect mapping are terminal in themselves.
type Kind string

const (
	KindAdvancePayment       Kind = "advance-payment"
	KindLeave                Kind = "leave"
	KindExpenseReimbursement Kind = "expense-reimbursement"
	KindContractRemittance   Kind = "contract-remittance"
	KindCorporatePayout      Kind = "corporate-payout"
	KindStaffLifecycleNotice Kind = "staff-lifecycle-notice"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IDPrefix returns the prefix used for request ids of this kind
func (k Kind) IDPrefix() string {
	switch k {
	case KindAdvancePayment:
		return "ADV"
	case KindLeave:
		return "LV"
	case KindExpenseReimbursement:
		return "EXP"
	case KindContractRemittance:
		return "REM"
	case KindCorporatePayout:
		return "PAY"
	case KindStaffLifecycleNotice:
		return "NOTIFY"
	default:
		return "REQ"
	}
}

// Status is the lifecycle status of an approval request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further decision may be applied
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision is a reviewer's verdict on a pending request
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// IsValid reports whether d is approved or rejected
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Status returns the terminal status this decision produces
func (d Decision) Status() Status {
	return Status(d)
}

// Notice types carried by staff lifecycle notices
const (
	NoticeTypeJoin     = "JOIN"
	NoticeTypeOffboard = "OFFBOARD"
)

// Metadata is the typed payload needed to compute side effects.
// Amount is the only field used for arithmetic; AmountDisplay on the
// request is informational.
type Metadata struct {
	Amount       *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Days         *float64 `json:"days,omitempty" yaml:"days,omitempty"`
	PayeeName    string   `json:"payee_name,omitempty" yaml:"payee_name,omitempty"`
	PayeeAccount string   `json:"payee_account,omitempty" yaml:"payee_account,omitempty"`
	NoticeType   string   `json:"notice_type,omitempty" yaml:"notice_type,omitempty"`
}

// AmountValue returns the typed amount, or zero when none is set
func (m *Metadata) AmountValue() (float64, bool) {
	if m == nil || m.Amount == nil {
		return 0, false
	}
	return *m.Amount, true
}

// Clone returns a deep copy of the metadata
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	if m.Amount != nil {
		v := *m.Amount
		c.Amount = &v
	}
	if m.Days != nil {
		v := *m.Days
		c.Days = &v
	}
	return &c
}

// ApprovalRequest is one submitted approval and its current status
type ApprovalRequest struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requester_id"`
	RequesterDept   string     `json:"requester_dept"`
	Kind            Kind       `json:"kind"`
	AmountDisplay   string     `json:"amount_display"`
	Detail          string     `json:"detail"`
	CreatedAt       time.Time  `json:"created_at"`
	Status          Status     `json:"status"`
	RelatedEntityID string     `json:"related_entity_id,omitempty"`
	TemplateID      string     `json:"template_id,omitempty"`
	Metadata        *Metadata  `json:"metadata,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// Clone returns a copy that shares no mutable state with r
func (r ApprovalRequest) Clone() ApprovalRequest {
	c := r
	c.Metadata = r.Metadata.Clone()
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	return c
}

// NewApprovalRequest is what a request-producing form submits
type NewApprovalRequest struct {
	RequesterID     string    `json:"requester_id"`
	RequesterDept   string    `json:"requester_dept"`
	Kind            Kind      `json:"kind"`
	AmountDisplay   string    `json:"amount_display"`
	Detail          string    `json:"detail"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	TemplateID      string    `json:"template_id,omitempty"`
	Metadata        *Metadata `json:"metadata,omitempty"`
}

// Validate checks the required fields of a submission
func (n NewApprovalRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(n.RequesterID) == "" {
		missing = append(missing, "requester_id")
	}
	if strings.TrimSpace(string(n.Kind)) == "" {
		missing = append(missing, "kind")
	}
	if strings.TrimSpace(n.Detail) == "" {
		missing = append(missing, "detail")
	}
	if len(missing) > 0 {
		return Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequestStats are the approval center counters
type RequestStats struct {
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// Float returns a pointer to v, for building Metadata literals
func Float(v float64) *float64 {
	return &v
}
