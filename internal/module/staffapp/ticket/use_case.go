package ticket

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/turnosalud/ts-queue/internal/module/staffapp/clinic"
	"github.com/turnosalud/ts-queue/internal/module/staffapp/patient"
	"github.com/turnosalud/ts-queue/internal/pkg/session"
	"github.com/turnosalud/ts-queue/internal/pkg/util"
	"github.com/turnosalud/ts-queue/pkg/broadcast"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/pubsub"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type TicketUseCase interface {
	Admit(ctx context.Context, req AdmitTicketRequest) (TicketResponse, error)
	ListWaiting(ctx context.Context, clinicID int64) (ListTicketResponse, error)
	ListWaitingForAssignedClinic(ctx context.Context) (ListTicketResponse, error)
	ListActive(ctx context.Context, clinicID int64) (ListTicketResponse, error)
	ApplyAction(ctx context.Context, req ApplyActionRequest) (TicketResponse, error)
	Reassign(ctx context.Context, req ReassignTicketRequest) (ReassignTicketResponse, error)
	GetReassignments(ctx context.Context, ticketID string) (ListReassignmentResponse, error)
}

type ticketUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	clinicRepository       clinic.ClinicRepository
	patientRepository      patient.PatientRepository
	ticketRepository       TicketRepository
	sequenceRepository     SequenceRepository
	reassignmentRepository ReassignmentRepository
	nowServingRepository   NowServingRepository
	hub                    *broadcast.Hub
	publisher              pubsub.Publisher
}

type TicketUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	ClinicRepository       clinic.ClinicRepository
	PatientRepository      patient.PatientRepository
	TicketRepository       TicketRepository
	SequenceRepository     SequenceRepository
	ReassignmentRepository ReassignmentRepository
	NowServingRepository   NowServingRepository
	Hub                    *broadcast.Hub
	Publisher              pubsub.Publisher
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	return &ticketUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		clinicRepository:       props.ClinicRepository,
		patientRepository:      props.PatientRepository,
		ticketRepository:       props.TicketRepository,
		sequenceRepository:     props.SequenceRepository,
		reassignmentRepository: props.ReassignmentRepository,
		nowServingRepository:   props.NowServingRepository,
		hub:                    props.Hub,
		publisher:              props.Publisher,
	}
}

// emit fans the committed change out to the hub and to kafka. The mutation
// is already persisted; delivery failures are logged and dropped, never
// propagated to the caller.
func (u *ticketUseCase) emit(ctx context.Context, e TicketChangedEvent) {
	u.hub.Publish(e.ClinicID, e)

	buff, _ := json.Marshal(e)
	u.publisher.Publish(ctx, TopicTicketChanged, e.TicketID, nil, buff)
}

// Admit implements TicketUseCase. The patient is deduplicated by national
// id when one is provided; the sequence number and the ticket row commit in
// the same transaction, so no ticket ever carries a number that was not
// durably allocated.
func (u *ticketUseCase) Admit(ctx context.Context, req AdmitTicketRequest) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	c, err := u.clinicRepository.FindByID(ctx, req.ClinicID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if !c.Active {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("clinic '%d' is not active", req.ClinicID))
	}

	now := time.Now()

	p, err := u.resolvePatient(ctx, req, now, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	sequenceNumber, err := u.sequenceRepository.Next(ctx, req.ClinicID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	t := Ticket{
		ID:             util.GenerateTimestampWithPrefix("TQ"),
		ClinicID:       req.ClinicID,
		SequenceNumber: sequenceNumber,
		State:          StateWaiting,
		Priority:       req.Priority,
		PatientID:      p.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.ticketRepository.Save(ctx, t, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	u.emit(ctx, eventFromEntity(t, &acc.ID))

	resp := TicketResponse{}
	resp.PopulateFromEntity(t)

	return resp, nil
}

func (u *ticketUseCase) resolvePatient(ctx context.Context, req AdmitTicketRequest, now time.Time, tx *sql.Tx) (patient.Patient, error) {
	if req.NationalID != "" {
		existing, err := u.patientRepository.FindByNationalID(ctx, req.NationalID, tx)
		if err == nil {
			return existing, nil
		}
		if !errors.MatchStatus(err, status.NOT_FOUND) {
			return patient.Patient{}, err
		}
	}

	p := patient.Patient{
		FirstName: req.FirstName,
		CreatedAt: now,
	}
	if req.NationalID != "" {
		p.NationalID = &req.NationalID
	}
	if req.LastName != "" {
		p.LastName = &req.LastName
	}

	return u.patientRepository.Save(ctx, p, tx)
}

// ListWaiting implements TicketUseCase. Pure read; the ordering
// (priority descending, sequence ascending) comes from the store.
func (u *ticketUseCase) ListWaiting(ctx context.Context, clinicID int64) (ListTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	return u.listByStates(ctx, clinicID, []State{StateWaiting})
}

// ListWaitingForAssignedClinic implements TicketUseCase for doctors, whose
// queue scope comes from their clinic assignment rather than a parameter.
func (u *ticketUseCase) ListWaitingForAssignedClinic(ctx context.Context) (ListTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if acc.ClinicID == nil {
		return nil, errors.New(http.StatusForbidden, status.FORBIDDEN, "account has no clinic assignment")
	}

	return u.listByStates(ctx, *acc.ClinicID, []State{StateWaiting})
}

// ListActive implements TicketUseCase. Called and in-service tickets are
// surfaced here rather than on the waiting list.
func (u *ticketUseCase) ListActive(ctx context.Context, clinicID int64) (ListTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	return u.listByStates(ctx, clinicID, []State{StateCalled, StateInService})
}

func (u *ticketUseCase) listByStates(ctx context.Context, clinicID int64, states []State) (ListTicketResponse, error) {
	tickets, err := u.ticketRepository.FindManyByClinicAndStates(ctx, clinicID, states, nil)
	if err != nil {
		return nil, err
	}

	resp := make(ListTicketResponse, len(tickets))
	for k, v := range tickets {
		resp[k].PopulateFromEntity(v)
	}

	return resp, nil
}

// ApplyAction implements TicketUseCase. The transition table is applied
// under a check-and-set scoped to the ticket id, so two concurrent actions
// can never both succeed from the same prior state. The change event is
// emitted after commit; a retried action against an already-moved ticket
// deterministically gets CONFLICT.
func (u *ticketUseCase) ApplyAction(ctx context.Context, req ApplyActionRequest) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByIDForUpdate(ctx, req.TicketID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if acc.ClinicID == nil || *acc.ClinicID != t.ClinicID {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "staff may only act on tickets of their assigned clinic")
	}

	action := Action(req.Action)

	next, ok := NextState(t.State, action)
	if !ok {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("action '%s' is not permitted from state '%s'", action, t.State))
	}

	now := time.Now()

	applied, err := u.ticketRepository.UpdateState(ctx, t.ID, t.State, next, now, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if !applied {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("ticket's state has changed, action '%s' is no longer permitted", action))
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		return TicketResponse{}, err
	}

	t.State = next
	t.UpdatedAt = now

	if next == StateCalled {
		u.nowServingRepository.Set(ctx, t.ClinicID, NowServing{
			TicketID:       t.ID,
			SequenceNumber: t.SequenceNumber,
			State:          t.State,
			CalledAt:       now,
		})
	}

	u.emit(ctx, eventFromEntity(t, &acc.ID))

	resp := TicketResponse{}
	resp.PopulateFromEntity(t)

	return resp, nil
}

// Reassign implements TicketUseCase. The clinic move, the fresh sequence
// number, the reset to waiting and the audit record commit atomically; the
// ticket re-enters the destination queue at the back of its priority band.
func (u *ticketUseCase) Reassign(ctx context.Context, req ReassignTicketRequest) (ReassignTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ReassignTicketResponse{}, err
	}

	if strings.TrimSpace(req.Reason) == "" {
		return ReassignTicketResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "reassignment reason is required")
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return ReassignTicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByIDForUpdate(ctx, req.TicketID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, err
	}

	if t.State.Terminal() {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("ticket '%s' is already closed", t.ID))
	}

	if t.ClinicID == req.ToClinicID {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, errors.New(http.StatusConflict, status.CONFLICT, "destination clinic must differ from the ticket's current clinic")
	}

	c, err := u.clinicRepository.FindByID(ctx, req.ToClinicID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, err
	}

	if !c.Active {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("clinic '%d' is not active", req.ToClinicID))
	}

	sequenceNumber, err := u.sequenceRepository.Next(ctx, req.ToClinicID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, err
	}

	now := time.Now()

	if err := u.ticketRepository.UpdateForReassignment(ctx, t.ID, req.ToClinicID, sequenceNumber, now, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, err
	}

	record, err := u.reassignmentRepository.Save(ctx, ReassignmentRecord{
		TicketID:     t.ID,
		FromClinicID: t.ClinicID,
		ToClinicID:   req.ToClinicID,
		Reason:       req.Reason,
		ActorID:      acc.ID,
		CreatedAt:    now,
	}, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return ReassignTicketResponse{}, err
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		return ReassignTicketResponse{}, err
	}

	t.ClinicID = req.ToClinicID
	t.SequenceNumber = sequenceNumber
	t.State = StateWaiting
	t.UpdatedAt = now

	u.emit(ctx, eventFromEntity(t, &acc.ID))

	resp := ReassignTicketResponse{}
	resp.Ticket.PopulateFromEntity(t)
	resp.Record.PopulateFromEntity(record)

	return resp, nil
}

// GetReassignments implements TicketUseCase.
func (u *ticketUseCase) GetReassignments(ctx context.Context, ticketID string) (ListReassignmentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.ticketRepository.FindByID(ctx, ticketID, nil); err != nil {
		return nil, err
	}

	records, err := u.reassignmentRepository.FindManyByTicketID(ctx, ticketID, nil)
	if err != nil {
		return nil, err
	}

	resp := make(ListReassignmentResponse, len(records))
	for k, v := range records {
		resp[k].PopulateFromEntity(v)
	}

	return resp, nil
}
