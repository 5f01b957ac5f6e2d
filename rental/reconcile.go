/*
reconcile.go - Overdue record planning and cross-entity consistency

OVERDUE POLICY:
  A contract is in arrears on asOf when it is not closed and either
    (a) any of its settlement items is OVERDUE, or
    (b) asOf is past its payment due date and no PAID rental fee item is
        dated on or after that due date.
  PlanOverdue creates one record per contract in arrears and refreshes the
  cached fee of records that already exist. It never deletes records: the
  notification history stays as an audit trail once arrears are settled.

CONSISTENCY:
  Forklift status and contract status are written by separate actions.
  CheckConsistency lists the places where they disagree. It only reports;
  deciding which side is right is left to an operator.
*/
package rental

import "fmt"

// =============================================================================
// OVERDUE PLANNING
// =============================================================================

type OverduePlan struct {
	AsOf    Date
	Create  []OverdueRecord
	Refresh []OverdueRecord
	// Open counts contracts in arrears on AsOf, tracked or about to be.
	Open int
}

// InArrears applies the overdue policy to one contract.
func InArrears(c Contract, items []SettlementItem, asOf Date) bool {
	if c.Status.Closed() {
		return false
	}
	paidAfterDue := false
	for _, item := range items {
		if item.ContractID != c.ID {
			continue
		}
		if item.Status == SettlementOverdue {
			return true
		}
		if item.Type == SettleRentalFee && item.Status == SettlementPaid &&
			!c.PaymentDueDate.IsZero() && !item.Date.Before(c.PaymentDueDate) {
			paidAfterDue = true
		}
	}
	return DaysLate(c, asOf) > 0 && !paidAfterDue
}

// PlanOverdue computes which overdue records to create or refresh. newID
// supplies ids for created records.
func PlanOverdue(s *Snapshot, asOf Date, calc Calculator, newID func() string) OverduePlan {
	plan := OverduePlan{AsOf: asOf}
	for _, c := range s.Contracts {
		existing, tracked := s.OverdueRecordFor(c.ID)
		if !InArrears(c, s.SettlementItems, asOf) {
			continue
		}
		plan.Open++
		fee := calc.Fee(c, asOf)
		if tracked {
			if !existing.AccumulatedOverdueFee.Equal(fee) {
				refreshed := existing.Clone()
				refreshed.AccumulatedOverdueFee = fee
				plan.Refresh = append(plan.Refresh, refreshed)
			}
			continue
		}
		plan.Create = append(plan.Create, OverdueRecord{
			ID:                    newID(),
			ContractID:            c.ID,
			AccumulatedOverdueFee: fee,
			NotificationHistory:   []OverdueCaseType{},
		})
	}
	return plan
}

// =============================================================================
// CONSISTENCY REPORT
// =============================================================================

type Inconsistency struct {
	Kind       string `json:"kind"`
	ForkliftID string `json:"forklift_id,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	Detail     string `json:"detail"`
}

const (
	KindRentedWithoutContract  = "rented_without_contract"
	KindRentedOnClosedContract = "rented_on_closed_contract"
	KindContractForkliftIdle   = "contract_forklift_not_rented"
	KindCompanyMismatch        = "company_mismatch"
	KindDateOrder              = "end_before_start"
)

// CheckConsistency reports forklift/contract pairs that disagree.
func CheckConsistency(s *Snapshot) []Inconsistency {
	var out []Inconsistency
	for _, f := range s.Forklifts {
		if f.ManagementStatus != Rented {
			continue
		}
		if f.CurrentContractID == "" {
			out = append(out, Inconsistency{Kind: KindRentedWithoutContract, ForkliftID: f.ID,
				Detail: "forklift is RENTED but has no current contract"})
			continue
		}
		c, ok := s.Contract(f.CurrentContractID)
		if !ok || c.Status.Closed() {
			status := "missing"
			if ok {
				status = string(c.Status)
			}
			out = append(out, Inconsistency{Kind: KindRentedOnClosedContract, ForkliftID: f.ID, ContractID: f.CurrentContractID,
				Detail: fmt.Sprintf("forklift is RENTED but its contract is %s", status)})
		}
	}

	for _, c := range s.Contracts {
		if c.EndDate.Before(c.StartDate) {
			out = append(out, Inconsistency{Kind: KindDateOrder, ContractID: c.ID,
				Detail: fmt.Sprintf("end date %s is before start date %s", c.EndDate, c.StartDate)})
		}
		f, ok := s.Forklift(c.ForkliftID)
		if !ok {
			continue
		}
		if f.RentalCompanyID != c.RentalCompanyID {
			out = append(out, Inconsistency{Kind: KindCompanyMismatch, ForkliftID: f.ID, ContractID: c.ID,
				Detail: fmt.Sprintf("contract company %s differs from forklift company %s", c.RentalCompanyID, f.RentalCompanyID)})
		}
		if c.Status == ContractRenting && f.CurrentContractID != c.ID {
			out = append(out, Inconsistency{Kind: KindContractForkliftIdle, ForkliftID: f.ID, ContractID: c.ID,
				Detail: fmt.Sprintf("contract is RENTING but forklift is %s and bound to %q", f.ManagementStatus, f.CurrentContractID)})
		}
	}
	return out
}
