package entity

import "time"

// Contract status values
const (
	ContractStatusExecuting = "executing"
	ContractStatusCompleted = "completed"
)

// Contract is a customer contract tracked by the contract ledger
type Contract struct {
	ID       string  `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	Customer string  `json:"customer" yaml:"customer"`
	Address  string  `json:"address" yaml:"address"`
	Amount   float64 `json:"amount" yaml:"amount"`
	Paid     float64 `json:"paid" yaml:"paid"`
	Status   string  `json:"status" yaml:"status"`
	Owner    string  `json:"owner" yaml:"owner"`
}

// Outstanding returns the unpaid remainder of the contract
func (c Contract) Outstanding() float64 {
	if c.Paid >= c.Amount {
		return 0
	}
	return c.Amount - c.Paid
}

// PayoutItem is a corporate payout waiting for (or having received) payment
type PayoutItem struct {
	RequestID    string     `json:"request_id"`
	PayeeName    string     `json:"payee_name"`
	PayeeAccount string     `json:"payee_account"`
	Amount       float64    `json:"amount"`
	Purpose      string     `json:"purpose"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
}

// Employee status values
const (
	EmployeeStatusActive     = "active"
	EmployeeStatusOffboarded = "offboarded"
)

// Employee is a member of the HR roster
type Employee struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Dept          string `json:"dept"`
	Phone         string `json:"phone,omitempty"`
	Username      string `json:"username"`
	Status        string `json:"status"`
	JoinDate      string `json:"join_date"`
	OffboardDate  string `json:"offboard_date,omitempty"`
	AlipayAccount string `json:"alipay_account,omitempty"`
}

// History action types
const (
	ActionSubmit       = "SUBMIT"
	ActionDecide       = "DECIDE"
	ActionNotice       = "NOTICE"
	ActionEffectFailed = "EFFECT_FAILED"
)

// ApprovalHistory is one entry of a request's decision journal
type ApprovalHistory struct {
	ID             int64     `json:"id"`
	RequestID      string    `json:"request_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActionType     string    `json:"action_type"`
	ActionData     string    `json:"action_data"`
	Timestamp      time.Time `json:"timestamp"`
}
