// Package wizard holds the multi-step checkout state as a pure reducer.
// Reduce never fails and never performs I/O; consumers are responsible for
// guarding against missing fields (e.g. jumping to checkout with no
// representative selected).
package wizard

import "civicpost/internal/models"

type ActionType string

const (
	ActionSetStep    ActionType = "set-step"
	ActionMergeOrder ActionType = "merge-order"
	ActionSetLoading ActionType = "set-loading"
	ActionSetError   ActionType = "set-error"
	ActionReset      ActionType = "reset"
)

// OrderPatch carries partial order data; nil fields are left untouched by
// the merge.
type OrderPatch struct {
	Representative *models.Recipient
	Senators       []models.Recipient
	Message        *string
	SenderName     *string
	SenderAddress  *string
	Sender         *models.Address
	SendOption     *models.SendOption
	Email          *string
}

type Action struct {
	Type    ActionType
	Step    int
	Patch   OrderPatch
	Loading bool
	Err     string // empty clears the error
}

type State struct {
	Step    int
	Order   models.Order
	Loading bool
	Err     string
}

// Reduce returns the next state. The input state is never mutated; senator
// slices are copied so a later patch cannot alias an earlier state.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetStep:
		s.Step = a.Step
	case ActionMergeOrder:
		s.Order = mergeOrder(s.Order, a.Patch)
	case ActionSetLoading:
		s.Loading = a.Loading
	case ActionSetError:
		s.Err = a.Err
	case ActionReset:
		return State{}
	}
	return s
}

func mergeOrder(o models.Order, p OrderPatch) models.Order {
	if p.Representative != nil {
		rep := *p.Representative
		o.Representative = &rep
	}
	if p.Senators != nil {
		o.Senators = append([]models.Recipient(nil), p.Senators...)
	}
	if p.Message != nil {
		o.Message = *p.Message
	}
	if p.SenderName != nil {
		o.SenderName = *p.SenderName
	}
	if p.SenderAddress != nil {
		o.SenderAddress = *p.SenderAddress
	}
	if p.Sender != nil {
		o.Sender = *p.Sender
	}
	if p.SendOption != nil {
		o.SendOption = *p.SendOption
	}
	if p.Email != nil {
		o.Email = *p.Email
	}
	return o
}
