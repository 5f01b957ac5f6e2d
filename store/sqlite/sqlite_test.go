package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ContractRoundTrip(t *testing.T) {
	// GIVEN: A contract with optional amounts and history
	ctx := context.Background()
	s := openTestStore(t)
	deposit := rental.Won(2_000_000)
	c := rental.Contract{
		ID: "c1", LesseeID: "l1", ForkliftID: "f1", RentalCompanyID: "A",
		StartDate: rental.MustDate("2024-01-01"), EndDate: rental.MustDate("2024-12-31"),
		Type: rental.LongTerm, Status: rental.ContractRenting,
		RentalFee: rental.Won(1_000_000), Deposit: &deposit,
		PaymentDueDate: rental.MustDate("2024-05-15"),
		PaymentMethod:  rental.PayCMS15th,
		History: []rental.HistoryEntry{
			{Type: rental.HistorySigned, Date: rental.MustDate("2023-12-20"), Description: "signed"},
		},
	}

	// WHEN: Saving and reloading
	require.NoError(t, s.PutContract(ctx, c))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	// THEN: Every field survives
	require.Len(t, snap.Contracts, 1)
	got := snap.Contracts[0]
	assert.Equal(t, "2024-12-31", got.EndDate.String())
	assert.True(t, got.TaxInvoiceIssueDate.IsZero())
	assert.Equal(t, int64(1_000_000), got.RentalFee.Int64())
	require.NotNil(t, got.Deposit)
	assert.Equal(t, int64(2_000_000), got.Deposit.Int64())
	assert.Nil(t, got.ShippingCost)
	assert.Equal(t, rental.PayCMS15th, got.PaymentMethod)
	require.Len(t, got.History, 1)
	assert.Equal(t, "2023-12-20", got.History[0].Date.String())
}

func TestStore_UpsertKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.PutCompany(ctx, rental.RentalCompany{ID: "A", Name: "Alpha", Status: rental.CompanyActive, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.PutCompany(ctx, rental.RentalCompany{ID: "B", Name: "Beta", Status: rental.CompanyActive, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.PutCompany(ctx, rental.RentalCompany{ID: "A", Name: "Alpha Rentals", Status: rental.CompanySuspended, CreatedAt: now, UpdatedAt: now.Add(time.Hour)}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Companies, 2)
	assert.Equal(t, "Alpha Rentals", snap.Companies[0].Name)
	assert.Equal(t, rental.CompanySuspended, snap.Companies[0].Status)
	assert.True(t, now.Equal(snap.Companies[0].CreatedAt))
	assert.True(t, now.Add(time.Hour).Equal(snap.Companies[0].UpdatedAt))
	assert.Equal(t, "B", snap.Companies[1].ID)
}

func TestStore_ForkliftConflicts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	f := rental.Forklift{
		ID: "f1", Manufacturer: "Doosan", Model: "D30S", Year: 2021, Tonnage: 3, Type: "diesel",
		ChassisNumber: "DS-0001", ManagementStatus: rental.InStorage, RentalCompanyID: "A",
		Maintenance: []rental.MaintenanceEntry{{Type: rental.MaintenanceRepair, Cost: rental.Won(80_000)}},
	}
	require.NoError(t, s.PutForklift(ctx, f))

	dup := f
	dup.ID = "f2"
	err := s.PutForklift(ctx, dup)
	assert.ErrorIs(t, err, rental.ErrConflict)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Forklifts, 1)
	assert.Equal(t, 3.0, snap.Forklifts[0].Tonnage)
	require.Len(t, snap.Forklifts[0].Maintenance, 1)
	assert.Equal(t, int64(80_000), snap.Forklifts[0].Maintenance[0].Cost.Int64())
}

func TestStore_ChassisNumberIgnoresCase(t *testing.T) {
	// GIVEN: A forklift registered as DH-30-0002
	ctx := context.Background()
	s := openTestStore(t)
	f := rental.Forklift{ID: "f1", ChassisNumber: "DH-30-0002", ManagementStatus: rental.InStorage, RentalCompanyID: "A"}
	require.NoError(t, s.PutForklift(ctx, f))

	// WHEN: Another forklift claims the same number in lower case
	err := s.PutForklift(ctx, rental.Forklift{ID: "f2", ChassisNumber: "dh-30-0002", ManagementStatus: rental.InStorage, RentalCompanyID: "A"})

	// THEN: It conflicts, while the owner may still change its own casing
	assert.ErrorIs(t, err, rental.ErrConflict)
	f.ChassisNumber = "dh-30-0002"
	require.NoError(t, s.PutForklift(ctx, f))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Forklifts, 1)
	assert.Equal(t, "dh-30-0002", snap.Forklifts[0].ChassisNumber)
}

func TestStore_UserEmailConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.PutUser(ctx, rental.User{ID: "u1", Email: "kim@example.com", Name: "Kim", Role: rental.RoleOperator}))

	err := s.PutUser(ctx, rental.User{ID: "u2", Email: "kim@example.com", Name: "Other", Role: rental.RoleOperator})

	assert.ErrorIs(t, err, rental.ErrConflict)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx rental.Store) error {
		require.NoError(t, tx.PutLessee(ctx, rental.Lessee{ID: "l1", Name: "Hanbit", ContractIDs: []string{"c1"}}))
		snap, err := tx.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Lessees, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Lessees)
}

func TestStore_DeleteCompany(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.PutCompany(ctx, rental.RentalCompany{ID: "A", Name: "Alpha", Status: rental.CompanyActive}))
	require.NoError(t, s.PutCompany(ctx, rental.RentalCompany{ID: "B", Name: "Beta", Status: rental.CompanyActive}))
	require.NoError(t, s.PutForklift(ctx, rental.Forklift{ID: "f1", ChassisNumber: "X", ManagementStatus: rental.InStorage, RentalCompanyID: "A"}))

	assert.ErrorIs(t, s.DeleteCompany(ctx, "A"), rental.ErrConflict)
	assert.ErrorIs(t, s.DeleteCompany(ctx, "missing"), rental.ErrNotFound)
	require.NoError(t, s.DeleteCompany(ctx, "B"))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Companies, 1)
	assert.Equal(t, "A", snap.Companies[0].ID)
}

func TestStore_OverdueRecordPerContract(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.PutOverdueRecord(ctx, rental.OverdueRecord{ID: "o1", ContractID: "c1", AccumulatedOverdueFee: rental.Won(1_005_479)}))

	err := s.PutOverdueRecord(ctx, rental.OverdueRecord{ID: "o2", ContractID: "c1"})
	assert.ErrorIs(t, err, rental.ErrConflict)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.OverdueRecords, 1)
	assert.NotNil(t, snap.OverdueRecords[0].NotificationHistory)
	assert.Equal(t, int64(1_005_479), snap.OverdueRecords[0].AccumulatedOverdueFee.Int64())
}

func TestStore_OverdueRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.SaveOverdueRun(ctx, rental.OverdueRun{
			ID: id, AsOf: rental.MustDate("2024-05-10"), Trigger: "schedule",
			Status: rental.RunRunning, StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	done := base.Add(90 * time.Second)
	require.NoError(t, s.SaveOverdueRun(ctx, rental.OverdueRun{
		ID: "r2", AsOf: rental.MustDate("2024-05-10"), Trigger: "schedule",
		Status: rental.RunCompleted, Created: 2, StartedAt: base.Add(time.Minute), CompletedAt: &done,
	}))

	runs, err := s.ListOverdueRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, "r2", runs[1].ID)
	assert.Equal(t, rental.RunCompleted, runs[1].Status)
	assert.Equal(t, 2, runs[1].Created)
	require.NotNil(t, runs[1].CompletedAt)
	assert.True(t, done.Equal(*runs[1].CompletedAt))
}

// =============================================================================
// sqlmock: driver errors and query shape
// =============================================================================

func TestStore_DeleteCompanyChecksReferences(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlite.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM forklifts WHERE rental_company_id`).
		WithArgs("A", "A", "A").
		WillReturnRows(sqlmock.NewRows([]string{"exists", "forklifts", "contracts"}).AddRow(1, 0, 2))
	mock.ExpectRollback()

	err = s.DeleteCompany(context.Background(), "A")

	var ce *rental.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, "contracts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRunWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlite.NewWithDB(db)

	mock.ExpectExec(`INSERT INTO overdue_runs`).WillReturnError(errors.New("disk I/O error"))

	err = s.SaveOverdueRun(context.Background(), rental.OverdueRun{ID: "r1", StartedAt: time.Now()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save overdue run")
	assert.NotErrorIs(t, err, rental.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListRunsAppliesLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlite.NewWithDB(db)

	rows := sqlmock.NewRows([]string{"id", "as_of", "run_trigger", "status", "created", "refreshed",
		"inconsistencies", "error", "started_at", "completed_at"}).
		AddRow("r9", "2024-05-10", "manual", rental.RunFailed, 0, 0, 0, "snapshot unavailable", "2024-05-10T01:00:00.000000Z", nil)
	mock.ExpectQuery(`ORDER BY started_at DESC, rowid DESC\s+LIMIT 5`).WillReturnRows(rows)

	runs, err := s.ListOverdueRuns(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "snapshot unavailable", runs[0].Error)
	assert.Equal(t, "2024-05-10", runs[0].AsOf.String())
	assert.Nil(t, runs[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SnapshotQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlite.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rental_companies`).WillReturnError(errors.New("no such table: rental_companies"))
	mock.ExpectRollback()

	_, err = s.Snapshot(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query rental_companies")
	assert.NoError(t, mock.ExpectationsWereMet())
}
