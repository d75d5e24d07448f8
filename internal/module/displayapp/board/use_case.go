package board

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/internal/module/staffapp/clinic"
	"github.com/turnosalud/ts-queue/internal/module/staffapp/ticket"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type BoardUseCase interface {
	GetBoard(ctx context.Context, clinicID int64) (GetBoardResponse, error)
}

type boardUseCase struct {
	logger               *logrus.Logger
	timeout              time.Duration
	clinicRepository     clinic.ClinicRepository
	ticketRepository     ticket.TicketRepository
	nowServingRepository ticket.NowServingRepository
}

type BoardUseCaseProperty struct {
	Logger               *logrus.Logger
	Timeout              time.Duration
	ClinicRepository     clinic.ClinicRepository
	TicketRepository     ticket.TicketRepository
	NowServingRepository ticket.NowServingRepository
}

func NewBoardUseCase(props BoardUseCaseProperty) BoardUseCase {
	return &boardUseCase{
		logger:               props.Logger,
		timeout:              props.Timeout,
		clinicRepository:     props.ClinicRepository,
		ticketRepository:     props.TicketRepository,
		nowServingRepository: props.NowServingRepository,
	}
}

// GetBoard implements BoardUseCase. The now-serving snapshot is advisory;
// a cache miss leaves it empty rather than failing the board.
func (u *boardUseCase) GetBoard(ctx context.Context, clinicID int64) (GetBoardResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	c, err := u.clinicRepository.FindByID(ctx, clinicID, nil)
	if err != nil {
		return GetBoardResponse{}, err
	}

	resp := GetBoardResponse{}
	resp.Clinic.ID = c.ID
	resp.Clinic.Name = c.Name

	ns, err := u.nowServingRepository.Find(ctx, clinicID)
	if err == nil {
		resp.NowServing = &ns
	} else if !errors.MatchStatus(err, status.NOT_FOUND) {
		return GetBoardResponse{}, err
	}

	waiting, err := u.ticketRepository.FindManyByClinicAndStates(ctx, clinicID, []ticket.State{ticket.StateWaiting}, nil)
	if err != nil {
		return GetBoardResponse{}, err
	}

	active, err := u.ticketRepository.FindManyByClinicAndStates(ctx, clinicID, []ticket.State{ticket.StateCalled, ticket.StateInService}, nil)
	if err != nil {
		return GetBoardResponse{}, err
	}

	resp.Waiting = make([]BoardTicket, len(waiting))
	for k, v := range waiting {
		resp.Waiting[k].PopulateFromEntity(v)
	}

	resp.Active = make([]BoardTicket, len(active))
	for k, v := range active {
		resp.Active[k].PopulateFromEntity(v)
	}

	return resp, nil
}
