package ticket

import "time"

type TicketResponse struct {
	ID             string    `json:"id"`
	ClinicID       int64     `json:"clinic_id"`
	SequenceNumber int64     `json:"sequence_number"`
	State          State     `json:"state"`
	Priority       int64     `json:"priority"`
	PatientID      int64     `json:"patient_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r *TicketResponse) PopulateFromEntity(t Ticket) {
	r.ID = t.ID
	r.ClinicID = t.ClinicID
	r.SequenceNumber = t.SequenceNumber
	r.State = t.State
	r.Priority = t.Priority
	r.PatientID = t.PatientID
	r.CreatedAt = t.CreatedAt
	r.UpdatedAt = t.UpdatedAt
}

type ListTicketResponse []TicketResponse

type ReassignmentRecordResponse struct {
	ID           int64     `json:"id"`
	TicketID     string    `json:"ticket_id"`
	FromClinicID int64     `json:"from_clinic_id"`
	ToClinicID   int64     `json:"to_clinic_id"`
	Reason       string    `json:"reason"`
	ActorID      int64     `json:"actor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *ReassignmentRecordResponse) PopulateFromEntity(record ReassignmentRecord) {
	r.ID = record.ID
	r.TicketID = record.TicketID
	r.FromClinicID = record.FromClinicID
	r.ToClinicID = record.ToClinicID
	r.Reason = record.Reason
	r.ActorID = record.ActorID
	r.CreatedAt = record.CreatedAt
}

type ListReassignmentResponse []ReassignmentRecordResponse

type ReassignTicketResponse struct {
	Ticket TicketResponse             `json:"ticket"`
	Record ReassignmentRecordResponse `json:"record"`
}
