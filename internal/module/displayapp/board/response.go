package board

import (
	"time"

	"github.com/turnosalud/ts-queue/internal/module/staffapp/ticket"
)

type BoardClinic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BoardTicket struct {
	ID             string       `json:"id"`
	SequenceNumber int64        `json:"sequence_number"`
	State          ticket.State `json:"state"`
	Priority       int64        `json:"priority"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (r *BoardTicket) PopulateFromEntity(t ticket.Ticket) {
	r.ID = t.ID
	r.SequenceNumber = t.SequenceNumber
	r.State = t.State
	r.Priority = t.Priority
	r.CreatedAt = t.CreatedAt
}

type GetBoardResponse struct {
	Clinic     BoardClinic        `json:"clinic"`
	NowServing *ticket.NowServing `json:"now_serving"`
	Waiting    []BoardTicket      `json:"waiting"`
	Active     []BoardTicket      `json:"active"`
}
