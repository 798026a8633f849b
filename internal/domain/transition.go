// internal/domain/transition.go
package domain

import (
	"fmt"

	"bidmarket/internal/util"
)

// Trigger is an action that may move a listing between states.
type Trigger string

const (
	TriggerEdit        Trigger = "edit"
	TriggerApprove     Trigger = "approve"
	TriggerReject      Trigger = "reject"
	TriggerMarkSold    Trigger = "mark_sold"
	TriggerSetPending  Trigger = "set_pending"
	TriggerSetApproved Trigger = "set_approved"
	TriggerSetRejected Trigger = "set_rejected"
)

var overrideTargets = map[Trigger]Status{
	TriggerSetPending:  StatusPending,
	TriggerSetApproved: StatusApproved,
	TriggerSetRejected: StatusRejected,
}

// OverrideTrigger maps an administrator-requested status onto its trigger.
func OverrideTrigger(target Status) (Trigger, error) {
	for trigger, status := range overrideTargets {
		if status == target {
			return trigger, nil
		}
	}
	return "", util.NewDomainError(util.ErrInvalidInput, "Invalid status value.")
}

func adminOnly(trigger Trigger) bool {
	if _, ok := overrideTargets[trigger]; ok {
		return true
	}
	return trigger == TriggerApprove || trigger == TriggerReject
}

// NextStatus is the listing state machine. It returns the status a listing in current
// moves to when trigger is applied by a caller holding role, or an error if that edge does not exist.
// It never mutates anything; callers consult it before touching the listing.
func NextStatus(current Status, trigger Trigger, role Role) (Status, error) {
	if adminOnly(trigger) && role != RoleAdmin {
		return "", util.NewDomainError(util.ErrForbidden, "Forbidden: only administrators can change listing status.")
	}
	if current == StatusSold {
		return "", invalidTransition(current, trigger)
	}

	switch trigger {
	case TriggerEdit:
		if current == StatusApproved && role == RoleVendor {
			return StatusPending, nil
		}
		return current, nil
	case TriggerApprove, TriggerReject:
		if current != StatusPending {
			return "", util.NewDomainError(util.ErrInvalidTransition,
				fmt.Sprintf("Listing is already processed (current status: %s).", current))
		}
		if trigger == TriggerApprove {
			return StatusApproved, nil
		}
		return StatusRejected, nil
	case TriggerMarkSold:
		if current != StatusApproved {
			return "", invalidTransition(current, trigger)
		}
		return StatusSold, nil
	case TriggerSetPending, TriggerSetApproved, TriggerSetRejected:
		return overrideTargets[trigger], nil
	}
	return "", invalidTransition(current, trigger)
}

func invalidTransition(current Status, trigger Trigger) error {
	return util.NewDomainError(util.ErrInvalidTransition,
		fmt.Sprintf("Cannot %s a listing in status %q.", trigger, current))
}
