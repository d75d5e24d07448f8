package ticket

type AdmitTicketRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	ClinicID   int64  `json:"clinic_id" validate:"required,gt=0"`
	Priority   int64  `json:"priority" validate:"gte=0"`
}

type ApplyActionRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=call attend finish miss"`
}

type ReassignTicketRequest struct {
	TicketID   string `json:"ticket_id" validate:"required"`
	ToClinicID int64  `json:"to_clinic_id" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"required"`
}
