// Package dialogue drives the train-search conversation.
//
// Step is a pure transition function: it decides the next session and the
// effects of a turn without doing any I/O. Controller applies those effects
// against the session store, the search collaborator and the chat.
package dialogue

import (
	"strings"

	"github.com/m3rciful/trainbot/internal/render"
	"github.com/m3rciful/trainbot/internal/session"
	"github.com/m3rciful/trainbot/internal/trip"
)

// InputKind classifies an inbound message.
type InputKind int

const (
	// InputText is a plain, non-command message.
	InputText InputKind = iota
	// InputStart begins a new conversation.
	InputStart
	// InputCancel aborts the active conversation.
	InputCancel
	// InputHelp asks for usage information.
	InputHelp
	// InputUnknownCommand is any other slash command.
	InputUnknownCommand
)

var inputKindNames = map[InputKind]string{
	InputText:           "text",
	InputStart:          "start",
	InputCancel:         "cancel",
	InputHelp:           "help",
	InputUnknownCommand: "unknown_command",
}

func (k InputKind) String() string {
	if name, ok := inputKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Input is one inbound message.
type Input struct {
	Kind      InputKind
	Text      string
	FirstName string
}

// EffectKind identifies a side effect of a turn.
type EffectKind int

const (
	// EffectReply sends Effect.Reply to the user.
	EffectReply EffectKind = iota
	// EffectSearch queries the collaborator with Effect.Query and replies
	// with the results or the no-results message.
	EffectSearch
	// EffectEvict destroys the stored session.
	EffectEvict
)

// Effect is a single side effect. Effects run in slice order.
type Effect struct {
	Kind  EffectKind
	Reply render.Reply
	Query trip.BookingQuery
}

// Transition is the outcome of Step.
type Transition struct {
	Session session.Session
	Effects []Effect
	// Rejected holds the validation error when a date was refused.
	Rejected error
}

// Evicts reports whether the transition destroys the session.
func (t Transition) Evicts() bool {
	for _, e := range t.Effects {
		if e.Kind == EffectEvict {
			return true
		}
	}
	return false
}

func reply(r render.Reply) Effect {
	return Effect{Kind: EffectReply, Reply: r}
}

func stay(sess session.Session, r render.Reply) Transition {
	return Transition{Session: sess, Effects: []Effect{reply(r)}}
}

// Step computes the next session and effects for one input.
func Step(sess session.Session, in Input) Transition {
	if sess.State == "" {
		sess.State = session.StateEntry
	}

	switch in.Kind {
	case InputHelp:
		return stay(sess, render.Help())
	case InputStart:
		return Transition{
			Session: session.Session{State: session.StateAwaitOrigin},
			Effects: []Effect{reply(render.Greeting(in.FirstName))},
		}
	case InputCancel:
		return Transition{
			Session: session.Session{State: session.StateDone},
			Effects: []Effect{reply(render.Cancelled()), {Kind: EffectEvict}},
		}
	case InputUnknownCommand:
		if sess.State.Active() {
			return stay(sess, render.UnknownCommand())
		}
		return stay(sess, render.Idle())
	}

	text := strings.TrimSpace(in.Text)
	switch sess.State {
	case session.StateAwaitOrigin:
		if text == "" {
			return stay(sess, render.AskOrigin())
		}
		next := sess
		next.State = session.StateAwaitDestination
		next.Origin = text
		return stay(next, render.AskDestination(text))

	case session.StateAwaitDestination:
		if text == "" {
			return stay(sess, render.AskDestination(sess.Origin))
		}
		next := sess
		next.State = session.StateAwaitDate
		next.Destination = text
		return stay(next, render.AskDate(sess.Origin, text))

	case session.StateAwaitDate:
		date, err := trip.ParseTravelDate(text)
		if err != nil {
			t := stay(sess, render.InvalidDate())
			t.Rejected = err
			return t
		}
		next := sess
		next.State = session.StateDone
		next.TravelDate = date.String()
		query := trip.BookingQuery{Origin: sess.Origin, Destination: sess.Destination, Date: date}
		return Transition{
			Session: next,
			Effects: []Effect{
				reply(render.Searching()),
				{Kind: EffectSearch, Query: query},
				{Kind: EffectEvict},
			},
		}
	}

	return stay(sess, render.Idle())
}
