package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/rental"
)

// =============================================================================
// LESSEES
// =============================================================================

// CreateLessee registers a customer. A lessee has no company of its own; it
// becomes visible to a company once a contract of that company names it.
func (s *Service) CreateLessee(ctx context.Context, actor *rental.User, in rental.Lessee) (rental.Lessee, error) {
	if err := authorize(actor, rental.CapLessees); err != nil {
		return rental.Lessee{}, err
	}
	if err := requireText("name", in.Name); err != nil {
		return rental.Lessee{}, err
	}
	in.ID = s.newID()
	in.ContractIDs = []string{}
	if err := s.store.PutLessee(ctx, in); err != nil {
		return rental.Lessee{}, err
	}
	s.log.Info("lessee registered", zap.String("lessee_id", in.ID), zap.String("name", in.Name))
	return in, nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

// CreateContract signs a contract: the contract starts RENTING with a
// CONTRACT_SIGNED entry, the lessee gains the contract id and the forklift
// is rented to it. The forklift decides the owning company.
//
// The lessee is looked up without scoping because a freshly registered
// lessee has no contracts yet and is therefore not visible to anyone but
// admins.
func (s *Service) CreateContract(ctx context.Context, actor *rental.User, in rental.Contract) (rental.Contract, error) {
	if err := authorize(actor, rental.CapContracts); err != nil {
		return rental.Contract{}, err
	}
	if err := validateContractTerms(in); err != nil {
		return rental.Contract{}, err
	}

	today := s.Today()
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		f, ok := rental.VisibleSnapshot(actor, snap).Forklift(in.ForkliftID)
		if !ok {
			return &rental.NotFoundError{Entity: "forklift", ID: in.ForkliftID}
		}
		lessee, ok := snap.Lessee(in.LesseeID)
		if !ok {
			return &rental.NotFoundError{Entity: "lessee", ID: in.LesseeID}
		}

		in.ID = s.newID()
		in.RentalCompanyID = f.RentalCompanyID
		in.Status = rental.ContractRenting
		in.History = []rental.HistoryEntry{{Type: rental.HistorySigned, Date: today, Description: "contract signed"}}

		rented, err := rental.ApplyForklift(f, rental.ForkliftChange{Action: rental.ForkliftRent, ContractID: in.ID})
		if err != nil {
			return err
		}
		lessee.ContractIDs = append(append([]string(nil), lessee.ContractIDs...), in.ID)

		if err := tx.PutContract(ctx, in); err != nil {
			return err
		}
		if err := tx.PutForklift(ctx, rented); err != nil {
			return err
		}
		return tx.PutLessee(ctx, lessee)
	})
	if err != nil {
		return rental.Contract{}, err
	}
	s.countTransition("forklift", string(rental.ForkliftRent))
	s.log.Info("contract registered",
		zap.String("contract_id", in.ID),
		zap.String("lessee_id", in.LesseeID),
		zap.String("forklift_id", in.ForkliftID),
		zap.String("company_id", in.RentalCompanyID))
	return in, nil
}

func validateContractTerms(c rental.Contract) error {
	if c.StartDate.IsZero() {
		return &rental.ValidationError{Field: "start_date", Reason: "date is required"}
	}
	if c.EndDate.IsZero() {
		return &rental.ValidationError{Field: "end_date", Reason: "date is required"}
	}
	if c.EndDate.Before(c.StartDate) {
		return &rental.ValidationError{Field: "end_date", Value: c.EndDate.String(), Reason: "must not be before start_date"}
	}
	switch c.Type {
	case rental.ShortTerm, rental.LongTerm:
	default:
		return &rental.ValidationError{Field: "contract_type", Value: string(c.Type), Reason: "unknown contract type"}
	}
	switch c.PaymentMethod {
	case rental.PayCMS5th, rental.PayCMS15th, rental.PayCMS25th, rental.PayMonthEndTransfer,
		rental.PayAfter30DaysTransfer, rental.PayAfter45DaysTransfer, rental.PayBankTransfer, rental.PayCreditCard:
	default:
		return &rental.ValidationError{Field: "payment_method", Value: string(c.PaymentMethod), Reason: "unknown payment method"}
	}
	if c.RentalFee.IsNegative() || c.RentalFee.IsZero() {
		return &rental.ValidationError{Field: "rental_fee", Value: c.RentalFee.String(), Reason: "must be greater than zero"}
	}
	if err := requireText("lessee_id", c.LesseeID); err != nil {
		return err
	}
	return requireText("forklift_id", c.ForkliftID)
}

// ExtendContract moves the end date of contract id to newEnd.
func (s *Service) ExtendContract(ctx context.Context, actor *rental.User, id string, newEnd rental.Date) (rental.Contract, error) {
	today := s.Today()
	return s.updateContract(ctx, actor, id, rental.ContractExtend, func(c rental.Contract) (rental.Contract, error) {
		return rental.ExtendContract(c, newEnd, today)
	})
}

// TransitionContract applies a status action other than extend. The
// forklift is left alone; CheckConsistency reports it until an operator
// returns or recovers it.
func (s *Service) TransitionContract(ctx context.Context, actor *rental.User, id string, action rental.ContractAction) (rental.Contract, error) {
	today := s.Today()
	return s.updateContract(ctx, actor, id, action, func(c rental.Contract) (rental.Contract, error) {
		return rental.ApplyContract(c, action, today)
	})
}

func (s *Service) updateContract(ctx context.Context, actor *rental.User, id string, action rental.ContractAction,
	apply func(rental.Contract) (rental.Contract, error)) (rental.Contract, error) {
	if err := authorize(actor, rental.CapContracts); err != nil {
		return rental.Contract{}, err
	}
	var out rental.Contract
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		c, ok := rental.VisibleSnapshot(actor, snap).Contract(id)
		if !ok {
			return &rental.NotFoundError{Entity: "contract", ID: id}
		}
		next, err := apply(c)
		if err != nil {
			return err
		}
		out = next
		return tx.PutContract(ctx, next)
	})
	if err != nil {
		return rental.Contract{}, err
	}
	s.countTransition("contract", string(action))
	s.log.Info("contract transition applied",
		zap.String("contract_id", id),
		zap.String("action", string(action)),
		zap.String("status", string(out.Status)),
		zap.Stringer("end_date", out.EndDate))
	return out, nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

// CreateSettlement books a ledger line against a visible contract. Status
// defaults to PAID.
func (s *Service) CreateSettlement(ctx context.Context, actor *rental.User, in rental.SettlementItem) (rental.SettlementItem, error) {
	if err := authorize(actor, rental.CapSettlements); err != nil {
		return rental.SettlementItem{}, err
	}
	if t, err := rental.ParseSettlementType(string(in.Type)); err != nil || t == "" {
		return rental.SettlementItem{}, &rental.ValidationError{Field: "type", Value: string(in.Type), Reason: "unknown settlement type"}
	}
	if in.Status == "" {
		in.Status = rental.SettlementPaid
	}
	if in.Status != rental.SettlementPaid && in.Status != rental.SettlementOverdue {
		return rental.SettlementItem{}, &rental.ValidationError{Field: "status", Value: string(in.Status), Reason: "unknown settlement status"}
	}
	if in.Date.IsZero() {
		return rental.SettlementItem{}, &rental.ValidationError{Field: "date", Reason: "date is required"}
	}
	if in.Amount.IsNegative() {
		return rental.SettlementItem{}, &rental.ValidationError{Field: "amount", Value: in.Amount.String(), Reason: "must not be negative"}
	}

	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		if _, ok := rental.VisibleSnapshot(actor, snap).Contract(in.ContractID); !ok {
			return &rental.NotFoundError{Entity: "contract", ID: in.ContractID}
		}
		in.ID = s.newID()
		return tx.PutSettlementItem(ctx, in)
	})
	if err != nil {
		return rental.SettlementItem{}, err
	}
	s.log.Info("settlement item booked",
		zap.String("settlement_id", in.ID),
		zap.String("contract_id", in.ContractID),
		zap.String("type", string(in.Type)),
		zap.Stringer("amount", in.Amount))
	return in, nil
}
