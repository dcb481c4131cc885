package payment

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo allows only pending -> completed|failed.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

// Provider webhook event names.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventChargeAbandoned = "charge.abandoned"
)

// StatusForEvent maps a webhook event to the status it settles a payment in.
// The second result is false for events that carry no transition.
func StatusForEvent(event string) (Status, bool) {
	switch event {
	case EventChargeSuccess:
		return StatusCompleted, true
	case EventChargeFailed, EventChargeAbandoned:
		return StatusFailed, true
	default:
		return "", false
	}
}
