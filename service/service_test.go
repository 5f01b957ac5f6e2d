package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/forklift-rental/metrics"
	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/rental/store"
	"github.com/warp/forklift-rental/service"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *service.Service
	mem     *store.Memory
	metrics *metrics.Metrics

	admin    *rental.User
	daehanBM *rental.User
	daehanOp *rental.User
	busanBM  *rental.User
}

func newService(mem *store.Memory, now time.Time, m *metrics.Metrics, idPrefix string) *service.Service {
	n := 0
	return service.New(mem, mem, service.Options{
		Now:     func() time.Time { return now },
		NewID:   func() string { n++; return fmt.Sprintf("%s-%d", idPrefix, n) },
		Metrics: m,
	})
}

// newFixture seeds the demo data set as of testNow.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	m := metrics.New()
	svc := newService(mem, testNow, m, "id")

	seeded, err := svc.SeedDemo(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	actor := func(email string) *rental.User {
		u, err := svc.ActorByEmail(ctx, email)
		require.NoError(t, err)
		return u
	}
	return &fixture{
		svc:      svc,
		mem:      mem,
		metrics:  m,
		admin:    actor(service.DemoAdminEmail),
		daehanBM: actor(service.DemoManagerEmail),
		daehanOp: actor(service.DemoOperatorEmail),
		busanBM:  actor(service.DemoBusanEmail),
	}
}

func (fx *fixture) snapshot(t *testing.T) *rental.Snapshot {
	t.Helper()
	snap, err := fx.mem.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func newContract(forkliftID, lesseeID string) rental.Contract {
	return rental.Contract{
		LesseeID:       lesseeID,
		ForkliftID:     forkliftID,
		StartDate:      rental.MustDate("2024-05-10"),
		EndDate:        rental.MustDate("2024-08-10"),
		Type:           rental.ShortTerm,
		RentalFee:      rental.Won(500_000),
		PaymentDueDate: rental.MustDate("2024-06-05"),
		PaymentMethod:  rental.PayCMS5th,
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func TestSeedDemo_OnlyOnce(t *testing.T) {
	fx := newFixture(t)

	seeded, err := fx.svc.SeedDemo(context.Background())

	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, fx.snapshot(t).Companies, 2)
}

func TestSeedDemo_IsConsistent(t *testing.T) {
	fx := newFixture(t)

	issues, err := fx.svc.Consistency(context.Background(), fx.admin)

	require.NoError(t, err)
	assert.Empty(t, issues)
}

// =============================================================================
// CONTRACTS
// =============================================================================

func TestCreateContract_RentsForkliftAndLinksLessee(t *testing.T) {
	// GIVEN: An idle Daehan forklift and a lessee with no contracts yet
	fx := newFixture(t)
	ctx := context.Background()

	// WHEN: The Daehan manager signs a contract
	c, err := fx.svc.CreateContract(ctx, fx.daehanBM, newContract("forklift-2", "lessee-haneul"))
	require.NoError(t, err)

	// THEN: The contract runs, the forklift is rented to it, the lessee lists it
	assert.Equal(t, rental.ContractRenting, c.Status)
	assert.Equal(t, "company-daehan", c.RentalCompanyID)
	require.Len(t, c.History, 1)
	assert.Equal(t, rental.HistorySigned, c.History[0].Type)
	assert.Equal(t, "2024-05-10", c.History[0].Date.String())

	snap := fx.snapshot(t)
	f, _ := snap.Forklift("forklift-2")
	assert.Equal(t, rental.Rented, f.ManagementStatus)
	assert.Equal(t, c.ID, f.CurrentContractID)
	l, _ := snap.Lessee("lessee-haneul")
	assert.Equal(t, []string{c.ID}, l.ContractIDs)

	// AND: The lessee is now visible to the manager through the contract
	view, err := fx.svc.View(ctx, fx.daehanBM)
	require.NoError(t, err)
	_, visible := view.Lessee("lessee-haneul")
	assert.True(t, visible)
}

func TestCreateContract_ForeignForkliftLooksMissing(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateContract(context.Background(), fx.daehanBM, newContract("forklift-4", "lessee-haneul"))

	assert.True(t, rental.IsNotFound(err), "got %v", err)
}

func TestCreateContract_ForkliftAlreadyRented_NothingWritten(t *testing.T) {
	// GIVEN: forklift-1 is rented under contract-1
	fx := newFixture(t)
	before := fx.snapshot(t)

	// WHEN: Signing a second contract for it
	_, err := fx.svc.CreateContract(context.Background(), fx.daehanBM, newContract("forklift-1", "lessee-haneul"))

	// THEN: The transition is rejected and no record changed
	assert.ErrorIs(t, err, rental.ErrInvalidTransition)
	after := fx.snapshot(t)
	assert.Len(t, after.Contracts, len(before.Contracts))
	l, _ := after.Lessee("lessee-haneul")
	assert.Empty(t, l.ContractIDs)
}

func TestCreateContract_Validation(t *testing.T) {
	fx := newFixture(t)
	in := newContract("forklift-2", "lessee-haneul")
	in.EndDate = rental.MustDate("2024-05-01")

	_, err := fx.svc.CreateContract(context.Background(), fx.daehanBM, in)

	var ve *rental.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end_date", ve.Field)
}

func TestCreateContract_RentalFeeMustBePositive(t *testing.T) {
	// GIVEN: A contract that carries no rental fee
	fx := newFixture(t)
	in := newContract("forklift-2", "lessee-haneul")
	in.RentalFee = rental.Money{}

	// WHEN: Signing it
	_, err := fx.svc.CreateContract(context.Background(), fx.daehanBM, in)

	// THEN: It is rejected on rental_fee and the forklift stays idle
	var ve *rental.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "rental_fee", ve.Field)
	f, _ := fx.snapshot(t).Forklift("forklift-2")
	assert.Empty(t, f.CurrentContractID)
}

func TestCreateContract_OperatorForbidden(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateContract(context.Background(), fx.daehanOp, newContract("forklift-2", "lessee-haneul"))

	assert.ErrorIs(t, err, rental.ErrForbidden)
}

func TestExtendContract(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c1, _ := fx.snapshot(t).Contract("contract-1")
	newEnd := c1.EndDate.AddMonths(6)

	// WHEN: Extending by six months
	extended, err := fx.svc.ExtendContract(ctx, fx.daehanBM, "contract-1", newEnd)
	require.NoError(t, err)

	// THEN: End date moves and the history records it
	assert.True(t, extended.EndDate.Equal(newEnd))
	last := extended.History[len(extended.History)-1]
	assert.Equal(t, rental.HistoryExtended, last.Type)
	assert.Contains(t, last.Description, newEnd.String())

	// AND: Moving the end date backwards is rejected
	_, err = fx.svc.ExtendContract(ctx, fx.daehanBM, "contract-1", c1.EndDate)
	assert.ErrorIs(t, err, rental.ErrValidation)
}

func TestTransitionContract_EndingLeavesForkliftReported(t *testing.T) {
	// GIVEN: contract-1 runs with forklift-1 rented to it
	fx := newFixture(t)
	ctx := context.Background()

	// WHEN: The contract ends without returning the forklift
	ended, err := fx.svc.TransitionContract(ctx, fx.daehanBM, "contract-1", rental.ContractEnd)
	require.NoError(t, err)
	assert.Equal(t, rental.ContractEnded, ended.Status)

	// THEN: The drift is reported to Daehan but not to Busan
	issues, err := fx.svc.Consistency(ctx, fx.daehanBM)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, rental.KindRentedOnClosedContract, issues[0].Kind)
	assert.Equal(t, "forklift-1", issues[0].ForkliftID)

	busanIssues, err := fx.svc.Consistency(ctx, fx.busanBM)
	require.NoError(t, err)
	assert.Empty(t, busanIssues)

	// AND: Ending twice is an invalid transition
	_, err = fx.svc.TransitionContract(ctx, fx.daehanBM, "contract-1", rental.ContractEnd)
	assert.ErrorIs(t, err, rental.ErrInvalidTransition)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.Transitions.WithLabelValues("contract", "end")))
}

// =============================================================================
// FORKLIFTS
// =============================================================================

func TestCreateForklift_ManagerWritesIntoOwnCompany(t *testing.T) {
	fx := newFixture(t)

	f, err := fx.svc.CreateForklift(context.Background(), fx.daehanBM, rental.Forklift{
		Manufacturer: "Hyundai", Model: "30D-9", ChassisNumber: "HY-1", ManagementStatus: rental.Rented,
	})

	require.NoError(t, err)
	assert.Equal(t, "company-daehan", f.RentalCompanyID)
	assert.Equal(t, rental.InStorage, f.ManagementStatus)
	assert.NotEmpty(t, f.ID)
}

func TestCreateForklift_DuplicateChassis(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.CreateForklift(context.Background(), fx.daehanBM, rental.Forklift{
		Manufacturer: "Doosan", Model: "D30S-7", ChassisNumber: "DH-30-0001",
	})

	assert.ErrorIs(t, err, rental.ErrConflict)
}

func TestCreateForklift_AdminMustNameCompany(t *testing.T) {
	fx := newFixture(t)
	in := rental.Forklift{Manufacturer: "Doosan", Model: "D30S-7", ChassisNumber: "NEW-1"}

	_, err := fx.svc.CreateForklift(context.Background(), fx.admin, in)
	assert.ErrorIs(t, err, rental.ErrValidation)

	in.RentalCompanyID = "company-busan"
	f, err := fx.svc.CreateForklift(context.Background(), fx.admin, in)
	require.NoError(t, err)
	assert.Equal(t, "company-busan", f.RentalCompanyID)
}

func TestTransitionForklift(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("rent is only reachable through a contract", func(t *testing.T) {
		_, err := fx.svc.TransitionForklift(ctx, fx.daehanBM, "forklift-2",
			rental.ForkliftChange{Action: rental.ForkliftRent, ContractID: "contract-1"})
		assert.ErrorIs(t, err, rental.ErrValidation)
	})

	t.Run("repair records a maintenance entry dated today", func(t *testing.T) {
		f, err := fx.svc.TransitionForklift(ctx, fx.daehanBM, "forklift-2", rental.ForkliftChange{
			Action: rental.ForkliftRepair,
			Entry: &rental.MaintenanceEntry{
				Type: rental.MaintenanceRepair, Description: "mast chain", Cost: rental.Won(90_000),
				ResponsibleParty: rental.PartyLessor,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, rental.UnderRepair, f.ManagementStatus)
		require.Len(t, f.Maintenance, 1)
		assert.Equal(t, "2024-05-10", f.Maintenance[0].Date.String())
	})

	t.Run("foreign forklift looks missing", func(t *testing.T) {
		_, err := fx.svc.TransitionForklift(ctx, fx.busanBM, "forklift-2",
			rental.ForkliftChange{Action: rental.ForkliftFinishMaintenance})
		assert.True(t, rental.IsNotFound(err))
	})
}

func TestRemoteControl(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RemoteControl(ctx, fx.daehanOp, "forklift-1", rental.ForkliftRemoteStop)
	assert.ErrorIs(t, err, rental.ErrForbidden)

	f, err := fx.svc.RemoteControl(ctx, fx.daehanBM, "forklift-1", rental.ForkliftRemoteStop)
	require.NoError(t, err)
	assert.Equal(t, rental.OpRemoteStopped, f.OperationStatus)
	assert.Equal(t, rental.Rented, f.ManagementStatus)

	_, err = fx.svc.RemoteControl(ctx, fx.daehanBM, "forklift-1", rental.ForkliftDispose)
	assert.ErrorIs(t, err, rental.ErrValidation)
}

// =============================================================================
// IMPORT
// =============================================================================

const importHeader = "manufacturer,model,year,tonnage,type,chassis_number,location\n"

func TestImportForklifts_DryRunWritesNothing(t *testing.T) {
	fx := newFixture(t)
	csv := importHeader + "Doosan,D30S-7,2022,3.0,Diesel,IM-1,Yard B\nToyota,8FG25,2020,2.5,LPG,IM-2,Yard B\n"

	report, err := fx.svc.ImportForklifts(context.Background(), fx.daehanBM, "fleet.csv", strings.NewReader(csv), "", true)

	require.NoError(t, err)
	assert.Equal(t, 2, report.ValidRows)
	assert.Len(t, fx.snapshot(t).Forklifts, 5)
}

func TestImportForklifts_CommitsIntoCompany(t *testing.T) {
	fx := newFixture(t)
	csv := importHeader + "Doosan,D30S-7,2022,3.0,Diesel,IM-1,Yard B\nToyota,8FG25,2020,2.5,LPG,IM-2,Yard B\n"

	report, err := fx.svc.ImportForklifts(context.Background(), fx.daehanBM, "fleet.csv", strings.NewReader(csv), "", false)

	require.NoError(t, err)
	imported := report.Forklifts()
	require.Len(t, imported, 2)
	snap := fx.snapshot(t)
	assert.Len(t, snap.Forklifts, 7)
	stored, ok := snap.Forklift(imported[0].ID)
	require.True(t, ok)
	assert.Equal(t, "company-daehan", stored.RentalCompanyID)
	assert.Equal(t, "IM-1", stored.ChassisNumber)
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.ImportRows.WithLabelValues("valid")))
}

func TestImportForklifts_AnyBadRowRejectsFile(t *testing.T) {
	// GIVEN: One good row and one reusing an existing chassis number
	fx := newFixture(t)
	csv := importHeader + "Doosan,D30S-7,2022,3.0,Diesel,IM-1,Yard B\nDoosan,D30S-7,2022,3.0,Diesel,DH-30-0001,Yard B\n"

	// WHEN: Importing
	report, err := fx.svc.ImportForklifts(context.Background(), fx.daehanBM, "fleet.csv", strings.NewReader(csv), "", false)

	// THEN: The report explains the failure and nothing is stored
	require.True(t, service.IsImportRejected(err))
	require.NotNil(t, report)
	assert.Equal(t, 1, report.InvalidRows)
	assert.Len(t, fx.snapshot(t).Forklifts, 5)
}

func TestImportForklifts_UnsupportedFile(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.ImportForklifts(context.Background(), fx.daehanBM, "fleet.pdf", strings.NewReader("x"), "", false)

	assert.ErrorIs(t, err, rental.ErrValidation)
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func TestCreateSettlement(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := rental.SettlementItem{
		ContractID: "contract-1", Type: rental.SettleRentalFee, Amount: rental.Won(1_000_000),
		Date: rental.MustDate("2024-05-10"),
	}

	created, err := fx.svc.CreateSettlement(ctx, fx.daehanBM, item)
	require.NoError(t, err)
	assert.Equal(t, rental.SettlementPaid, created.Status)

	item.ContractID = "contract-3"
	_, err = fx.svc.CreateSettlement(ctx, fx.daehanBM, item)
	assert.True(t, rental.IsNotFound(err))

	item.ContractID, item.Type = "contract-1", "ALL"
	_, err = fx.svc.CreateSettlement(ctx, fx.daehanBM, item)
	assert.ErrorIs(t, err, rental.ErrValidation)
}

// =============================================================================
// OVERDUE
// =============================================================================

func TestNotifyOverdue_RequestPayment(t *testing.T) {
	fx := newFixture(t)
	c3, _ := fx.snapshot(t).Contract("contract-3")

	o, err := fx.svc.NotifyOverdue(context.Background(), fx.busanBM, "overdue-1", rental.OverdueRequestPayment)

	require.NoError(t, err)
	assert.Equal(t, []rental.OverdueCaseType{rental.CaseRentalFeeOverdue, rental.CaseRentalFeeOverdue}, o.NotificationHistory)
	assert.Equal(t, "2024-05-10", o.LastNotificationDate.String())
	assert.True(t, o.AccumulatedOverdueFee.Equal(rental.OverdueFee(c3, rental.MustDate("2024-05-10"))))
}

func TestNotifyOverdue_ForeignRecordLooksMissing(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.NotifyOverdue(context.Background(), fx.daehanBM, "overdue-1", rental.OverdueCertifiedMail)

	assert.True(t, rental.IsNotFound(err))
}

func TestNotifyOverdue_TerminateAlsoTerminatesContract(t *testing.T) {
	fx := newFixture(t)

	o, err := fx.svc.NotifyOverdue(context.Background(), fx.busanBM, "overdue-1", rental.OverdueTerminate)
	require.NoError(t, err)

	assert.Equal(t, rental.CaseContractTerminated, o.NotificationHistory[len(o.NotificationHistory)-1])
	c3, _ := fx.snapshot(t).Contract("contract-3")
	assert.Equal(t, rental.ContractTerminated, c3.Status)
	assert.Equal(t, rental.HistoryEnded, c3.History[len(c3.History)-1].Type)
}

func TestReconcileOverdue(t *testing.T) {
	// GIVEN: Demo data seeded on May 10
	fx := newFixture(t)
	ctx := context.Background()

	// WHEN: Reconciling on the seed day
	run, err := fx.svc.ReconcileOverdue(ctx, service.TriggerManual)
	require.NoError(t, err)

	// THEN: The seeded record is already current
	assert.Equal(t, rental.RunCompleted, run.Status)
	assert.Zero(t, run.Created)
	assert.Zero(t, run.Refreshed)

	// WHEN: Reconciling ten days later, past contract-1's due date (May 15)
	later := newService(fx.mem, testNow.AddDate(0, 0, 10), fx.metrics, "later")
	run, err = later.ReconcileOverdue(ctx, service.TriggerSchedule)
	require.NoError(t, err)

	// THEN: contract-1 gets a record and contract-3's fee is refreshed
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Refreshed)
	snap := fx.snapshot(t)
	o, ok := snap.OverdueRecordFor("contract-1")
	require.True(t, ok)
	assert.Equal(t, int64(1_002_740), o.AccumulatedOverdueFee.Int64(), "1,000,000 five days late")
	assert.Empty(t, o.NotificationHistory)
	assert.Len(t, snap.OverdueRecords, 2)

	// AND: Both runs are recorded newest first
	runs, err := fx.svc.OverdueRuns(ctx, fx.admin, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, service.TriggerSchedule, runs[0].Trigger)
	assert.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.OverdueRecordsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.metrics.OverdueRecordsOpen))
}

func TestReconcileOverdue_OpenGaugeSkipsSettledContracts(t *testing.T) {
	// GIVEN: contract-3's overdue record ends in termination
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.svc.NotifyOverdue(ctx, fx.busanBM, "overdue-1", rental.OverdueTerminate)
	require.NoError(t, err)

	// WHEN: Reconciling on the same day
	_, err = fx.svc.ReconcileOverdue(ctx, service.TriggerManual)
	require.NoError(t, err)

	// THEN: The record is kept but no longer counted as open
	_, kept := fx.snapshot(t).OverdueRecordFor("contract-3")
	assert.True(t, kept)
	assert.Equal(t, 0.0, testutil.ToFloat64(fx.metrics.OverdueRecordsOpen))
}

type failingStore struct {
	*store.Memory
}

func (failingStore) WithTx(context.Context, func(rental.Store) error) error {
	return errors.New("disk full")
}

func TestReconcileOverdue_FailureIsRecorded(t *testing.T) {
	mem := store.NewMemory()
	svc := service.New(failingStore{mem}, mem, service.Options{Now: func() time.Time { return testNow }})

	run, err := svc.ReconcileOverdue(context.Background(), service.TriggerManual)

	require.Error(t, err)
	assert.Equal(t, rental.RunFailed, run.Status)
	runs, _ := mem.ListOverdueRuns(context.Background(), 0)
	require.Len(t, runs, 1)
	assert.Equal(t, rental.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "disk full")
}

// =============================================================================
// ACCOUNTS AND COMPANIES
// =============================================================================

func TestInviteUser(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	t.Run("manager invites operator into own company", func(t *testing.T) {
		u, err := fx.svc.InviteUser(ctx, fx.daehanBM, rental.User{Email: " New.Op@Daehan.local ", Name: "New Op", Role: rental.RoleOperator})
		require.NoError(t, err)
		assert.Equal(t, "company-daehan", u.RentalCompanyID)
		assert.Equal(t, "new.op@daehan.local", u.Email)
	})

	t.Run("manager cannot invite a manager", func(t *testing.T) {
		_, err := fx.svc.InviteUser(ctx, fx.daehanBM, rental.User{Email: "bm2@daehan.local", Name: "BM", Role: rental.RoleBusinessManager})
		assert.ErrorIs(t, err, rental.ErrForbidden)
	})

	t.Run("manager cannot invite into another company", func(t *testing.T) {
		_, err := fx.svc.InviteUser(ctx, fx.daehanBM, rental.User{Email: "op@busan.local", Name: "Op", Role: rental.RoleOperator, RentalCompanyID: "company-busan"})
		assert.ErrorIs(t, err, rental.ErrForbidden)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := fx.svc.InviteUser(ctx, fx.admin, rental.User{Email: service.DemoManagerEmail, Name: "Dup", Role: rental.RoleOperator, RentalCompanyID: "company-daehan"})
		assert.ErrorIs(t, err, rental.ErrConflict)
	})

	t.Run("admins carry no company", func(t *testing.T) {
		u, err := fx.svc.InviteUser(ctx, fx.admin, rental.User{Email: "root@forklift.local", Name: "Root", Role: rental.RoleAdmin, RentalCompanyID: "company-daehan"})
		require.NoError(t, err)
		assert.Empty(t, u.RentalCompanyID)
	})

	t.Run("malformed email", func(t *testing.T) {
		for _, email := range []string{"nope", "", "kim@", "Kim <kim@daehan.local>"} {
			_, err := fx.svc.InviteUser(ctx, fx.admin, rental.User{Email: email, Name: "X", Role: rental.RoleAdmin})
			var ve *rental.ValidationError
			require.ErrorAs(t, err, &ve, email)
			assert.Equal(t, "email", ve.Field)
		}
	})
}

func TestCompanies(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateCompany(ctx, fx.daehanBM, rental.RentalCompany{Name: "Nope"})
	assert.ErrorIs(t, err, rental.ErrForbidden)

	c, err := fx.svc.CreateCompany(ctx, fx.admin, rental.RentalCompany{Name: "Gwangju Lift"})
	require.NoError(t, err)
	assert.Equal(t, rental.CompanyPreparing, c.Status)
	assert.Equal(t, testNow, c.CreatedAt)

	c.Status = rental.CompanyActive
	updated, err := fx.svc.UpdateCompany(ctx, fx.admin, c.ID, c)
	require.NoError(t, err)
	assert.Equal(t, rental.CompanyActive, updated.Status)

	assert.ErrorIs(t, fx.svc.DeleteCompany(ctx, fx.admin, "company-daehan"), rental.ErrConflict)
	require.NoError(t, fx.svc.DeleteCompany(ctx, fx.admin, c.ID))
	assert.True(t, rental.IsNotFound(fx.svc.DeleteCompany(ctx, fx.admin, c.ID)))
}
