package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/rental"
)

// InviteUser creates an account. Business managers may only invite
// operators into their own company; a BM that leaves the company empty
// invites into its own.
func (s *Service) InviteUser(ctx context.Context, actor *rental.User, in rental.User) (rental.User, error) {
	if err := authorize(actor, rental.CapAccounts); err != nil {
		return rental.User{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(in.Email, "required,email"); err != nil {
		return rental.User{}, &rental.ValidationError{Field: "email", Value: in.Email, Reason: "not a valid email address"}
	}
	if err := requireText("name", in.Name); err != nil {
		return rental.User{}, err
	}
	if !in.Role.Known() {
		return rental.User{}, &rental.ValidationError{Field: "role", Value: string(in.Role), Reason: "unknown role"}
	}
	if in.RentalCompanyID == "" && actor.Role == rental.RoleBusinessManager {
		in.RentalCompanyID = actor.RentalCompanyID
	}
	if !rental.CanInvite(actor, in.Role, in.RentalCompanyID) {
		return rental.User{}, fmt.Errorf("%w: %s may not invite %s into %q", rental.ErrForbidden, actor.Role, in.Role, in.RentalCompanyID)
	}

	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		if in.Role == rental.RoleAdmin {
			in.RentalCompanyID = ""
		} else {
			if err := requireText("rental_company_id", in.RentalCompanyID); err != nil {
				return err
			}
			if _, ok := snap.Company(in.RentalCompanyID); !ok {
				return &rental.NotFoundError{Entity: "rental company", ID: in.RentalCompanyID}
			}
		}
		in.ID = s.newID()
		return tx.PutUser(ctx, in)
	})
	if err != nil {
		return rental.User{}, err
	}
	s.log.Info("user invited",
		zap.String("user_id", in.ID),
		zap.String("role", string(in.Role)),
		zap.String("company_id", in.RentalCompanyID),
		zap.String("invited_by", actor.ID))
	return in, nil
}
