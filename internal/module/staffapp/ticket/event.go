package ticket

import "time"

// TopicTicketChanged is the kafka topic every committed ticket mutation is
// published to, keyed by ticket id so per-ticket ordering is preserved.
const TopicTicketChanged = "ticket-changed"

// TicketChangedEvent is the payload shared by the kafka topic and the
// broadcast hub. Consumers key off clinic and state, not off which
// operation produced the change.
type TicketChangedEvent struct {
	TicketID       string    `json:"ticket_id"`
	ClinicID       int64     `json:"clinic_id"`
	SequenceNumber int64     `json:"sequence_number"`
	State          State     `json:"state"`
	Priority       int64     `json:"priority"`
	ActorID        *int64    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func eventFromEntity(t Ticket, actorID *int64) TicketChangedEvent {
	return TicketChangedEvent{
		TicketID:       t.ID,
		ClinicID:       t.ClinicID,
		SequenceNumber: t.SequenceNumber,
		State:          t.State,
		Priority:       t.Priority,
		ActorID:        actorID,
		OccurredAt:     t.UpdatedAt,
	}
}
