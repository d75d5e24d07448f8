package ticket

import "time"

type State string

const (
	StateWaiting   State = "waiting"
	StateCalled    State = "called"
	StateInService State = "in_service"
	StateDone      State = "done"
	StateNoShow    State = "no_show"
)

// Terminal reports whether no further action is accepted from this state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateNoShow
}

type Action string

const (
	ActionCall   Action = "call"
	ActionAttend Action = "attend"
	ActionFinish Action = "finish"
	ActionMiss   Action = "miss"
)

// transitions is the explicit table of permitted ticket transitions keyed by
// (current state, action). Anything not listed is rejected.
var transitions = map[State]map[Action]State{
	StateWaiting: {
		ActionCall: StateCalled,
		ActionMiss: StateNoShow,
	},
	StateCalled: {
		ActionAttend: StateInService,
		ActionMiss:   StateNoShow,
	},
	StateInService: {
		ActionFinish: StateDone,
	},
}

// NextState resolves the state an action leads to from the current state.
func NextState(current State, action Action) (State, bool) {
	next, ok := transitions[current][action]
	return next, ok
}

// Ticket is one admitted request for service. SequenceNumber is unique and
// monotonically increasing within a clinic; it is never reused, and a
// reassigned ticket gets a fresh number scoped to the destination clinic.
type Ticket struct {
	ID             string
	ClinicID       int64
	SequenceNumber int64
	State          State
	Priority       int64
	PatientID      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReassignmentRecord is the append-only audit entry written for every
// reassignment. It is never updated or deleted.
type ReassignmentRecord struct {
	ID           int64
	TicketID     string
	FromClinicID int64
	ToClinicID   int64
	Reason       string
	ActorID      int64
	CreatedAt    time.Time
}

// NowServing is the per-clinic display snapshot cached when a ticket is
// called.
type NowServing struct {
	TicketID       string    `json:"ticket_id"`
	SequenceNumber int64     `json:"sequence_number"`
	State          State     `json:"state"`
	CalledAt       time.Time `json:"called_at"`
}
