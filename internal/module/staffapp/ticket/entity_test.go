package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		current State
		action  Action
		want    State
		allowed bool
	}{
		{name: "waiting can be called", current: StateWaiting, action: ActionCall, want: StateCalled, allowed: true},
		{name: "waiting can be missed", current: StateWaiting, action: ActionMiss, want: StateNoShow, allowed: true},
		{name: "waiting cannot be attended", current: StateWaiting, action: ActionAttend, allowed: false},
		{name: "waiting cannot be finished", current: StateWaiting, action: ActionFinish, allowed: false},
		{name: "called can be attended", current: StateCalled, action: ActionAttend, want: StateInService, allowed: true},
		{name: "called can be missed", current: StateCalled, action: ActionMiss, want: StateNoShow, allowed: true},
		{name: "called cannot be called again", current: StateCalled, action: ActionCall, allowed: false},
		{name: "in service can be finished", current: StateInService, action: ActionFinish, want: StateDone, allowed: true},
		{name: "in service cannot be missed", current: StateInService, action: ActionMiss, allowed: false},
		{name: "in service cannot be called", current: StateInService, action: ActionCall, allowed: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextState(tc.current, tc.action)
			assert.Equal(t, tc.allowed, ok)
			if tc.allowed {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestNextState_TerminalStatesRejectEveryAction(t *testing.T) {
	actions := []Action{ActionCall, ActionAttend, ActionFinish, ActionMiss}

	for _, terminal := range []State{StateDone, StateNoShow} {
		assert.True(t, terminal.Terminal())

		for _, action := range actions {
			_, ok := NextState(terminal, action)
			assert.False(t, ok, "state %s must reject action %s", terminal, action)
		}
	}
}

func TestNextState_NoPathSkipsCalledToDone(t *testing.T) {
	// The only way from called to done walks through in_service.
	next, ok := NextState(StateCalled, ActionFinish)
	assert.False(t, ok)
	assert.NotEqual(t, StateDone, next)
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateWaiting.Terminal())
	assert.False(t, StateCalled.Terminal())
	assert.False(t, StateInService.Terminal())
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateNoShow.Terminal())
}
