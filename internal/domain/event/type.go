package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestSubmitted Type = "request.submitted"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeNoticeAppended   Type = "notice.appended"
	TypeEffectFailed     Type = "effect.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestSubmitted,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeNoticeAppended,
		TypeEffectFailed:
		return true
	default:
		return false
	}
}

// All lists every event type, for subscribers that observe the whole stream
func All() []Type {
	return []Type{
		TypeRequestSubmitted,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeNoticeAppended,
		TypeEffectFailed,
	}
}
