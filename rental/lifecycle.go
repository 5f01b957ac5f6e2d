/*
lifecycle.go - Contract and forklift state machines

PURPOSE:
  Status fields only change through named actions. Each action lists the
  states it may start from; anything else is a TransitionError and the
  record is returned unchanged.

CONTRACT:
  extend          RENTING, ON_HOLD           -> (same)             + CONTRACT_EXTENDED
  hold            RENTING                    -> ON_HOLD
  resume          ON_HOLD                    -> RENTING
  terminate       RENTING, ON_HOLD           -> MID_TERM_TERMINATION + CONTRACT_ENDED
  await_recovery  RENTING, ON_HOLD           -> AWAITING_RECOVERY
  recover         AWAITING_RECOVERY          -> CONTRACT_ENDED     + CONTRACT_ENDED
  end             RENTING, ON_HOLD           -> CONTRACT_ENDED     + CONTRACT_ENDED

FORKLIFT (management):
  rent            IN_STORAGE                 -> RENTED (binds contract)
  loan            IN_STORAGE                 -> ON_LOAN
  return          RENTED, ON_LOAN, OVERDUE_RECOVERY -> IN_STORAGE (unbinds)
  repair          IN_STORAGE, RENTED, ON_LOAN -> UNDER_REPAIR
  replace_part    IN_STORAGE, RENTED, ON_LOAN -> PART_REPLACEMENT
  finish_maintenance UNDER_REPAIR, PART_REPLACEMENT -> IN_STORAGE
  start_recovery  RENTED                     -> OVERDUE_RECOVERY
  dispose         IN_STORAGE, UNDER_REPAIR   -> DISPOSED

FORKLIFT (operation):
  remote_start -> OPERATING, remote_stop -> REMOTE_STOPPED; never when DISPOSED.

Transitions touch one record only. Keeping a contract and its forklift in
step is the caller's job; CheckConsistency reports where they drift.
*/
package rental

import (
	"fmt"
	"slices"
)

// =============================================================================
// CONTRACT
// =============================================================================

type ContractAction string

const (
	ContractExtend        ContractAction = "extend"
	ContractHold          ContractAction = "hold"
	ContractResume        ContractAction = "resume"
	ContractTerminate     ContractAction = "terminate"
	ContractAwaitRecovery ContractAction = "await_recovery"
	ContractRecover       ContractAction = "recover"
	ContractEnd           ContractAction = "end"
)

type contractRule struct {
	from    []ContractStatus
	to      ContractStatus // empty keeps the current status
	history HistoryType    // empty appends nothing
	note    string
}

var contractRules = map[ContractAction]contractRule{
	ContractExtend:        {from: []ContractStatus{ContractRenting, ContractOnHold}, history: HistoryExtended},
	ContractHold:          {from: []ContractStatus{ContractRenting}, to: ContractOnHold},
	ContractResume:        {from: []ContractStatus{ContractOnHold}, to: ContractRenting},
	ContractTerminate:     {from: []ContractStatus{ContractRenting, ContractOnHold}, to: ContractTerminated, history: HistoryEnded, note: "mid-term termination"},
	ContractAwaitRecovery: {from: []ContractStatus{ContractRenting, ContractOnHold}, to: ContractAwaitingRecovery},
	ContractRecover:       {from: []ContractStatus{ContractAwaitingRecovery}, to: ContractEnded, history: HistoryEnded, note: "forklift recovered"},
	ContractEnd:           {from: []ContractStatus{ContractRenting, ContractOnHold}, to: ContractEnded, history: HistoryEnded, note: "contract ended"},
}

// ParseContractAction rejects names outside the transition table.
func ParseContractAction(s string) (ContractAction, error) {
	a := ContractAction(s)
	if _, ok := contractRules[a]; !ok {
		return "", &ValidationError{Field: "action", Value: s, Reason: "unknown contract action"}
	}
	return a, nil
}

// AllowedContractActions lists what can be applied to a contract in status s.
func AllowedContractActions(s ContractStatus) []ContractAction {
	var out []ContractAction
	for a, r := range contractRules {
		if slices.Contains(r.from, s) {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// ApplyContract performs action on c as of on. Extension goes through
// ExtendContract because it needs a new end date.
func ApplyContract(c Contract, action ContractAction, on Date) (Contract, error) {
	if action == ContractExtend {
		return c, &ValidationError{Field: "action", Value: string(action), Reason: "use extend with a new end date"}
	}
	return applyContract(c, action, on, "")
}

// ExtendContract moves the end date of a running contract later.
func ExtendContract(c Contract, newEnd, on Date) (Contract, error) {
	if newEnd.IsZero() {
		return c, &ValidationError{Field: "end_date", Reason: "date is required"}
	}
	if !newEnd.After(c.EndDate) {
		return c, &ValidationError{Field: "end_date", Value: newEnd.String(), Reason: "must be after the current end date " + c.EndDate.String()}
	}
	note := fmt.Sprintf("extended from %s to %s", c.EndDate, newEnd)
	next, err := applyContract(c, ContractExtend, on, note)
	if err != nil {
		return c, err
	}
	next.EndDate = newEnd
	return next, nil
}

func applyContract(c Contract, action ContractAction, on Date, note string) (Contract, error) {
	rule, ok := contractRules[action]
	if !ok {
		return c, &ValidationError{Field: "action", Value: string(action), Reason: "unknown contract action"}
	}
	if !slices.Contains(rule.from, c.Status) {
		return c, &TransitionError{Entity: "contract", ID: c.ID, From: string(c.Status), Action: string(action)}
	}

	next := c.Clone()
	if rule.to != "" {
		next.Status = rule.to
	}
	if rule.history != "" {
		if note == "" {
			note = rule.note
		}
		next.History = append(next.History, HistoryEntry{Type: rule.history, Date: on, Description: note})
	}
	return next, nil
}

// =============================================================================
// FORKLIFT
// =============================================================================

type ForkliftAction string

const (
	ForkliftRent              ForkliftAction = "rent"
	ForkliftLoan              ForkliftAction = "loan"
	ForkliftReturn            ForkliftAction = "return"
	ForkliftRepair            ForkliftAction = "repair"
	ForkliftReplacePart       ForkliftAction = "replace_part"
	ForkliftFinishMaintenance ForkliftAction = "finish_maintenance"
	ForkliftStartRecovery     ForkliftAction = "start_recovery"
	ForkliftDispose           ForkliftAction = "dispose"
	ForkliftRemoteStart       ForkliftAction = "remote_start"
	ForkliftRemoteStop        ForkliftAction = "remote_stop"
)

type forkliftRule struct {
	from []ManagementStatus // nil means any status except DISPOSED
	to   ManagementStatus
	op   OperationStatus
}

var forkliftRules = map[ForkliftAction]forkliftRule{
	ForkliftRent:              {from: []ManagementStatus{InStorage}, to: Rented},
	ForkliftLoan:              {from: []ManagementStatus{InStorage}, to: OnLoan},
	ForkliftReturn:            {from: []ManagementStatus{Rented, OnLoan, OverdueRecovery}, to: InStorage},
	ForkliftRepair:            {from: []ManagementStatus{InStorage, Rented, OnLoan}, to: UnderRepair},
	ForkliftReplacePart:       {from: []ManagementStatus{InStorage, Rented, OnLoan}, to: PartReplacement},
	ForkliftFinishMaintenance: {from: []ManagementStatus{UnderRepair, PartReplacement}, to: InStorage},
	ForkliftStartRecovery:     {from: []ManagementStatus{Rented}, to: OverdueRecovery},
	ForkliftDispose:           {from: []ManagementStatus{InStorage, UnderRepair}, to: Disposed},
	ForkliftRemoteStart:       {op: OpOperating},
	ForkliftRemoteStop:        {op: OpRemoteStopped},
}

func ParseForkliftAction(s string) (ForkliftAction, error) {
	a := ForkliftAction(s)
	if _, ok := forkliftRules[a]; !ok {
		return "", &ValidationError{Field: "action", Value: s, Reason: "unknown forklift action"}
	}
	return a, nil
}

// ForkliftChange carries the optional inputs of a forklift action.
type ForkliftChange struct {
	Action     ForkliftAction
	ContractID string            // rent
	Entry      *MaintenanceEntry // repair, replace_part
}

// ApplyForklift performs change on f.
func ApplyForklift(f Forklift, change ForkliftChange) (Forklift, error) {
	rule, ok := forkliftRules[change.Action]
	if !ok {
		return f, &ValidationError{Field: "action", Value: string(change.Action), Reason: "unknown forklift action"}
	}
	allowed := f.ManagementStatus != Disposed
	if rule.from != nil {
		allowed = slices.Contains(rule.from, f.ManagementStatus)
	}
	if !allowed {
		return f, &TransitionError{Entity: "forklift", ID: f.ID, From: string(f.ManagementStatus), Action: string(change.Action)}
	}
	if change.Action == ForkliftRent && change.ContractID == "" {
		return f, &ValidationError{Field: "contract_id", Reason: "required to rent a forklift"}
	}

	next := f.Clone()
	if rule.to != "" {
		next.ManagementStatus = rule.to
	}
	if rule.op != "" {
		next.OperationStatus = rule.op
	}
	switch change.Action {
	case ForkliftRent:
		next.CurrentContractID = change.ContractID
	case ForkliftReturn:
		next.CurrentContractID = ""
	case ForkliftRepair, ForkliftReplacePart:
		if change.Entry != nil {
			next.Maintenance = append(next.Maintenance, *change.Entry)
		}
	}
	return next, nil
}
