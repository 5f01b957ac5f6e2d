package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/importer"
	"github.com/warp/forklift-rental/rental"
)

// ErrImportRejected is returned with the Report when any row failed.
var ErrImportRejected = errors.New("import rejected")

// IsImportRejected reports whether err carries a rejected import report.
func IsImportRejected(err error) bool { return errors.Is(err, ErrImportRejected) }

// =============================================================================
// RENTAL COMPANIES
// =============================================================================

func (s *Service) CreateCompany(ctx context.Context, actor *rental.User, in rental.RentalCompany) (rental.RentalCompany, error) {
	if err := authorize(actor, rental.CapCompanies); err != nil {
		return rental.RentalCompany{}, err
	}
	if err := requireText("name", in.Name); err != nil {
		return rental.RentalCompany{}, err
	}
	if in.Status == "" {
		in.Status = rental.CompanyPreparing
	}
	if err := validCompanyStatus(in.Status); err != nil {
		return rental.RentalCompany{}, err
	}
	now := s.now().UTC()
	in.ID = s.newID()
	in.CreatedAt, in.UpdatedAt = now, now

	if err := s.store.PutCompany(ctx, in); err != nil {
		return rental.RentalCompany{}, fmt.Errorf("failed to save company: %w", err)
	}
	s.log.Info("rental company registered", zap.String("company_id", in.ID), zap.String("name", in.Name))
	return in, nil
}

// UpdateCompany replaces the editable fields of company id.
func (s *Service) UpdateCompany(ctx context.Context, actor *rental.User, id string, in rental.RentalCompany) (rental.RentalCompany, error) {
	if err := authorize(actor, rental.CapCompanies); err != nil {
		return rental.RentalCompany{}, err
	}
	if err := requireText("name", in.Name); err != nil {
		return rental.RentalCompany{}, err
	}
	if err := validCompanyStatus(in.Status); err != nil {
		return rental.RentalCompany{}, err
	}

	var out rental.RentalCompany
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		current, ok := rental.VisibleSnapshot(actor, snap).Company(id)
		if !ok {
			return &rental.NotFoundError{Entity: "rental company", ID: id}
		}
		out = current
		out.Name = in.Name
		out.RegistrationNumber = in.RegistrationNumber
		out.Address = in.Address
		out.Representative = in.Representative
		out.Phone = in.Phone
		out.Status = in.Status
		out.UpdatedAt = s.now().UTC()
		return tx.PutCompany(ctx, out)
	})
	if err != nil {
		return rental.RentalCompany{}, err
	}
	return out, nil
}

func (s *Service) DeleteCompany(ctx context.Context, actor *rental.User, id string) error {
	if err := authorize(actor, rental.CapCompanies); err != nil {
		return err
	}
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return err
	}
	s.log.Info("rental company deleted", zap.String("company_id", id))
	return nil
}

func validCompanyStatus(st rental.CompanyStatus) error {
	switch st {
	case rental.CompanyPreparing, rental.CompanyActive, rental.CompanySuspended:
		return nil
	}
	return &rental.ValidationError{Field: "status", Value: string(st), Reason: "unknown company status"}
}

// =============================================================================
// FORKLIFTS
// =============================================================================

// CreateForklift registers a forklift in storage. Management status other
// than IN_STORAGE is only reachable through transitions.
func (s *Service) CreateForklift(ctx context.Context, actor *rental.User, in rental.Forklift) (rental.Forklift, error) {
	if err := authorize(actor, rental.CapForkliftsWrite); err != nil {
		return rental.Forklift{}, err
	}
	for _, f := range [][2]string{
		{"manufacturer", in.Manufacturer},
		{"model", in.Model},
		{"chassis_number", in.ChassisNumber},
	} {
		if err := requireText(f[0], f[1]); err != nil {
			return rental.Forklift{}, err
		}
	}

	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		company, err := owningCompany(snap, actor, in.RentalCompanyID)
		if err != nil {
			return err
		}
		in.ID = s.newID()
		in.RentalCompanyID = company
		in.ManagementStatus = rental.InStorage
		in.OperationStatus = rental.OpChecking
		in.CurrentContractID = ""
		return tx.PutForklift(ctx, in)
	})
	if err != nil {
		return rental.Forklift{}, err
	}
	s.log.Info("forklift registered",
		zap.String("forklift_id", in.ID),
		zap.String("company_id", in.RentalCompanyID),
		zap.String("chassis_number", in.ChassisNumber))
	return in, nil
}

// TransitionForklift applies a management action. Renting happens only by
// registering a contract.
func (s *Service) TransitionForklift(ctx context.Context, actor *rental.User, id string, change rental.ForkliftChange) (rental.Forklift, error) {
	if change.Action == rental.ForkliftRent {
		return rental.Forklift{}, &rental.ValidationError{Field: "action", Value: string(change.Action),
			Reason: "forklifts are rented by registering a contract"}
	}
	return s.applyForklift(ctx, actor, id, change)
}

// RemoteControl starts or stops a forklift remotely.
func (s *Service) RemoteControl(ctx context.Context, actor *rental.User, id string, action rental.ForkliftAction) (rental.Forklift, error) {
	if action != rental.ForkliftRemoteStart && action != rental.ForkliftRemoteStop {
		return rental.Forklift{}, &rental.ValidationError{Field: "action", Value: string(action), Reason: "expected remote_start or remote_stop"}
	}
	return s.applyForklift(ctx, actor, id, rental.ForkliftChange{Action: action})
}

func (s *Service) applyForklift(ctx context.Context, actor *rental.User, id string, change rental.ForkliftChange) (rental.Forklift, error) {
	if err := authorize(actor, rental.CapForkliftsWrite); err != nil {
		return rental.Forklift{}, err
	}
	var out rental.Forklift
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		f, ok := rental.VisibleSnapshot(actor, snap).Forklift(id)
		if !ok {
			return &rental.NotFoundError{Entity: "forklift", ID: id}
		}
		if change.Entry != nil && change.Entry.Date.IsZero() {
			change.Entry.Date = s.Today()
		}
		next, err := rental.ApplyForklift(f, change)
		if err != nil {
			return err
		}
		out = next
		return tx.PutForklift(ctx, next)
	})
	if err != nil {
		return rental.Forklift{}, err
	}
	s.countTransition("forklift", string(change.Action))
	s.log.Info("forklift transition applied",
		zap.String("forklift_id", id),
		zap.String("action", string(change.Action)),
		zap.String("management_status", string(out.ManagementStatus)),
		zap.String("operation_status", string(out.OperationStatus)))
	return out, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportForklifts parses an uploaded sheet and, unless dryRun is set, stores
// every row in one transaction. Any failed row rejects the whole file: the
// Report is returned together with ErrImportRejected and nothing is written.
func (s *Service) ImportForklifts(ctx context.Context, actor *rental.User, filename string, r io.Reader, companyID string, dryRun bool) (*importer.Report, error) {
	if err := authorize(actor, rental.CapForkliftsWrite); err != nil {
		return nil, err
	}
	rows, err := importer.ReadTable(filename, r)
	if err != nil {
		return nil, &rental.ValidationError{Field: "file", Value: filename, Reason: err.Error()}
	}

	var report *importer.Report
	err = s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		company, err := owningCompany(snap, actor, companyID)
		if err != nil {
			return err
		}
		report, err = s.importer.Parse(rows, snap.Forklifts)
		if err != nil {
			return &rental.ValidationError{Field: "file", Value: filename, Reason: err.Error()}
		}
		if !report.OK() {
			return ErrImportRejected
		}
		if dryRun {
			return nil
		}
		for i := range report.Results {
			f := report.Results[i].Forklift
			f.ID = s.newID()
			f.RentalCompanyID = company
			f.OperationStatus = rental.OpChecking
			if err := tx.PutForklift(ctx, *f); err != nil {
				return fmt.Errorf("row %d: %w", report.Results[i].Row, err)
			}
		}
		return nil
	})

	if report != nil && s.metrics != nil {
		s.metrics.ImportRows.WithLabelValues("valid").Add(float64(report.ValidRows))
		s.metrics.ImportRows.WithLabelValues("invalid").Add(float64(report.InvalidRows))
	}
	if err != nil {
		if errors.Is(err, ErrImportRejected) {
			s.log.Warn("forklift import rejected",
				zap.String("file", filename),
				zap.Int("invalid_rows", report.InvalidRows))
			return report, err
		}
		return nil, err
	}
	s.log.Info("forklift import completed",
		zap.String("file", filename),
		zap.Int("rows", report.ValidRows),
		zap.Bool("dry_run", dryRun))
	return report, nil
}
