/*
Package sqlite provides a SQLite-backed rental.Store.

KEY TABLES:
  rental_companies, forklifts, lessees, contracts,
  settlement_items, overdue_records, users: one row per record
  overdue_runs: reconciliation run log

ORDERING:
  Every entity table has seq INTEGER PRIMARY KEY AUTOINCREMENT and a unique
  id. Upserts go through ON CONFLICT(id) so a replaced record keeps its seq,
  which keeps snapshot order equal to insertion order.

ENCODING:
  dates:   "YYYY-MM-DD" text, empty when unset
  money:   decimal text, NULL for absent optional amounts
  logs:    contract history, lessee contract ids, forklift maintenance and
           overdue notification history as JSON text

CONCURRENCY:
  One open connection. Snapshot reads all tables inside one transaction;
  WithTx runs reads and writes on the same sql.Tx.

USAGE:
  store, err := sqlite.New("./data/forklift.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - rental/store.go: Store interface
  - rental/store/memory.go: in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/forklift-rental/rental"
)

// Store implements rental.Store and rental.RunLog using SQLite.
type Store struct {
	db *sql.DB
}

// New opens dbPath and migrates the schema. Use ":memory:" for a throwaway
// database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an already opened database without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rental_companies (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		registration_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		representative TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS forklifts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		manufacturer TEXT NOT NULL,
		model TEXT NOT NULL,
		year INTEGER NOT NULL,
		tonnage REAL NOT NULL,
		type TEXT NOT NULL,
		chassis_number TEXT NOT NULL UNIQUE COLLATE NOCASE,
		gps_serial TEXT NOT NULL DEFAULT '',
		purchase_date TEXT NOT NULL DEFAULT '',
		purchase_price TEXT NOT NULL DEFAULT '0',
		withdrawal_date TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		management_status TEXT NOT NULL,
		operation_status TEXT NOT NULL DEFAULT '',
		current_contract_id TEXT NOT NULL DEFAULT '',
		rental_company_id TEXT NOT NULL,
		maintenance_json TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_forklifts_company ON forklifts(rental_company_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_forklifts_chassis ON forklifts(chassis_number COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS lessees (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		registration_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		representative TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		contract_ids_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS contracts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		lessee_id TEXT NOT NULL,
		forklift_id TEXT NOT NULL,
		contract_pdf_url TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		contract_type TEXT NOT NULL,
		status TEXT NOT NULL,
		rental_fee TEXT NOT NULL,
		shipping_cost TEXT,
		deposit TEXT,
		repair_cost TEXT,
		commission TEXT,
		early_termination_penalty TEXT,
		tax_invoice_issue_date TEXT NOT NULL DEFAULT '',
		payment_due_date TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		history_json TEXT NOT NULL DEFAULT '[]',
		rental_company_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_company ON contracts(rental_company_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_lessee ON contracts(lessee_id);

	CREATE TABLE IF NOT EXISTS settlement_items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		contract_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_settlement_items_contract ON settlement_items(contract_id);

	CREATE TABLE IF NOT EXISTS overdue_records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		contract_id TEXT NOT NULL UNIQUE,
		accumulated_overdue_fee TEXT NOT NULL DEFAULT '0',
		last_notification_date TEXT NOT NULL DEFAULT '',
		notification_history_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS users (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		rental_company_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS overdue_runs (
		id TEXT PRIMARY KEY,
		as_of TEXT NOT NULL,
		run_trigger TEXT NOT NULL,
		status TEXT NOT NULL,
		created INTEGER NOT NULL DEFAULT 0,
		refreshed INTEGER NOT NULL DEFAULT 0,
		inconsistencies INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_overdue_runs_started ON overdue_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// rental.Store
// =============================================================================

// Snapshot loads every table inside one transaction.
func (s *Store) Snapshot(ctx context.Context) (*rental.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	snap, err := loadSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}
	return snap, tx.Commit()
}

func (s *Store) WithTx(ctx context.Context, fn func(rental.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) PutCompany(ctx context.Context, c rental.RentalCompany) error {
	return putCompany(ctx, s.db, c)
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx rental.Store) error { return tx.DeleteCompany(ctx, id) })
}

func (s *Store) PutForklift(ctx context.Context, f rental.Forklift) error {
	return putForklift(ctx, s.db, f)
}

func (s *Store) PutLessee(ctx context.Context, l rental.Lessee) error {
	return putLessee(ctx, s.db, l)
}

func (s *Store) PutContract(ctx context.Context, c rental.Contract) error {
	return putContract(ctx, s.db, c)
}

func (s *Store) PutSettlementItem(ctx context.Context, item rental.SettlementItem) error {
	return putSettlementItem(ctx, s.db, item)
}

func (s *Store) PutOverdueRecord(ctx context.Context, o rental.OverdueRecord) error {
	return putOverdueRecord(ctx, s.db, o)
}

func (s *Store) PutUser(ctx context.Context, u rental.User) error {
	return putUser(ctx, s.db, u)
}

// Reset deletes every record. Used when reloading demo data.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"rental_companies", "forklifts", "lessees", "contracts",
		"settlement_items", "overdue_records", "users", "overdue_runs"}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to reset %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Snapshot(ctx context.Context) (*rental.Snapshot, error) {
	return loadSnapshot(ctx, ts.tx)
}

func (ts *txStore) WithTx(_ context.Context, fn func(rental.Store) error) error {
	return fn(ts)
}

func (ts *txStore) PutCompany(ctx context.Context, c rental.RentalCompany) error {
	return putCompany(ctx, ts.tx, c)
}

func (ts *txStore) DeleteCompany(ctx context.Context, id string) error {
	var exists, forklifts, contracts int
	row := ts.tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM rental_companies WHERE id = ?),
			(SELECT COUNT(*) FROM forklifts WHERE rental_company_id = ?),
			(SELECT COUNT(*) FROM contracts WHERE rental_company_id = ?)
	`, id, id, id)
	if err := row.Scan(&exists, &forklifts, &contracts); err != nil {
		return fmt.Errorf("failed to check company references: %w", err)
	}
	switch {
	case exists == 0:
		return &rental.NotFoundError{Entity: "rental company", ID: id}
	case forklifts > 0:
		return &rental.ConflictError{Entity: "rental company", Key: id, Reason: "forklifts still reference it"}
	case contracts > 0:
		return &rental.ConflictError{Entity: "rental company", Key: id, Reason: "contracts still reference it"}
	}
	if _, err := ts.tx.ExecContext(ctx, `DELETE FROM rental_companies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (ts *txStore) PutForklift(ctx context.Context, f rental.Forklift) error {
	return putForklift(ctx, ts.tx, f)
}

func (ts *txStore) PutLessee(ctx context.Context, l rental.Lessee) error {
	return putLessee(ctx, ts.tx, l)
}

func (ts *txStore) PutContract(ctx context.Context, c rental.Contract) error {
	return putContract(ctx, ts.tx, c)
}

func (ts *txStore) PutSettlementItem(ctx context.Context, item rental.SettlementItem) error {
	return putSettlementItem(ctx, ts.tx, item)
}

func (ts *txStore) PutOverdueRecord(ctx context.Context, o rental.OverdueRecord) error {
	return putOverdueRecord(ctx, ts.tx, o)
}

func (ts *txStore) PutUser(ctx context.Context, u rental.User) error {
	return putUser(ctx, ts.tx, u)
}

// =============================================================================
// WRITES
// =============================================================================

func putCompany(ctx context.Context, q queryer, c rental.RentalCompany) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO rental_companies (id, name, registration_number, address, representative, phone, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			registration_number = excluded.registration_number,
			address = excluded.address,
			representative = excluded.representative,
			phone = excluded.phone,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, c.RegistrationNumber, c.Address, c.Representative, c.Phone, c.Status,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func putForklift(ctx context.Context, q queryer, f rental.Forklift) error {
	maintenance, err := json.Marshal(nonNil(f.Maintenance))
	if err != nil {
		return fmt.Errorf("failed to encode maintenance: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO forklifts (id, manufacturer, model, year, tonnage, type, chassis_number, gps_serial,
			purchase_date, purchase_price, withdrawal_date, location, notes, management_status,
			operation_status, current_contract_id, rental_company_id, maintenance_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			year = excluded.year,
			tonnage = excluded.tonnage,
			type = excluded.type,
			chassis_number = excluded.chassis_number,
			gps_serial = excluded.gps_serial,
			purchase_date = excluded.purchase_date,
			purchase_price = excluded.purchase_price,
			withdrawal_date = excluded.withdrawal_date,
			location = excluded.location,
			notes = excluded.notes,
			management_status = excluded.management_status,
			operation_status = excluded.operation_status,
			current_contract_id = excluded.current_contract_id,
			rental_company_id = excluded.rental_company_id,
			maintenance_json = excluded.maintenance_json
	`, f.ID, f.Manufacturer, f.Model, f.Year, f.Tonnage, f.Type, f.ChassisNumber, f.GPSSerial,
		f.PurchaseDate.String(), f.PurchasePrice.String(), f.WithdrawalDate.String(), f.Location, f.Notes,
		f.ManagementStatus, f.OperationStatus, f.CurrentContractID, f.RentalCompanyID, string(maintenance))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &rental.ConflictError{Entity: "forklift", Key: f.ChassisNumber, Reason: "chassis number already registered"}
		}
		return fmt.Errorf("failed to save forklift: %w", err)
	}
	return nil
}

func putLessee(ctx context.Context, q queryer, l rental.Lessee) error {
	ids, err := json.Marshal(nonNil(l.ContractIDs))
	if err != nil {
		return fmt.Errorf("failed to encode contract ids: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO lessees (id, name, registration_number, address, representative, phone, contract_ids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			registration_number = excluded.registration_number,
			address = excluded.address,
			representative = excluded.representative,
			phone = excluded.phone,
			contract_ids_json = excluded.contract_ids_json
	`, l.ID, l.Name, l.RegistrationNumber, l.Address, l.Representative, l.Phone, string(ids))
	if err != nil {
		return fmt.Errorf("failed to save lessee: %w", err)
	}
	return nil
}

func putContract(ctx context.Context, q queryer, c rental.Contract) error {
	history, err := json.Marshal(nonNil(c.History))
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO contracts (id, lessee_id, forklift_id, contract_pdf_url, start_date, end_date,
			contract_type, status, rental_fee, shipping_cost, deposit, repair_cost, commission,
			early_termination_penalty, tax_invoice_issue_date, payment_due_date, payment_method,
			history_json, rental_company_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lessee_id = excluded.lessee_id,
			forklift_id = excluded.forklift_id,
			contract_pdf_url = excluded.contract_pdf_url,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			contract_type = excluded.contract_type,
			status = excluded.status,
			rental_fee = excluded.rental_fee,
			shipping_cost = excluded.shipping_cost,
			deposit = excluded.deposit,
			repair_cost = excluded.repair_cost,
			commission = excluded.commission,
			early_termination_penalty = excluded.early_termination_penalty,
			tax_invoice_issue_date = excluded.tax_invoice_issue_date,
			payment_due_date = excluded.payment_due_date,
			payment_method = excluded.payment_method,
			history_json = excluded.history_json,
			rental_company_id = excluded.rental_company_id
	`, c.ID, c.LesseeID, c.ForkliftID, c.ContractPDFURL, c.StartDate.String(), c.EndDate.String(),
		c.Type, c.Status, c.RentalFee.String(), nullMoney(c.ShippingCost), nullMoney(c.Deposit),
		nullMoney(c.RepairCost), nullMoney(c.Commission), nullMoney(c.EarlyTerminationPenalty),
		c.TaxInvoiceIssueDate.String(), c.PaymentDueDate.String(), c.PaymentMethod,
		string(history), c.RentalCompanyID)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

func putSettlementItem(ctx context.Context, q queryer, item rental.SettlementItem) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO settlement_items (id, contract_id, type, amount, date, status, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contract_id = excluded.contract_id,
			type = excluded.type,
			amount = excluded.amount,
			date = excluded.date,
			status = excluded.status,
			description = excluded.description
	`, item.ID, item.ContractID, item.Type, item.Amount.String(), item.Date.String(), item.Status, item.Description)
	if err != nil {
		return fmt.Errorf("failed to save settlement item: %w", err)
	}
	return nil
}

func putOverdueRecord(ctx context.Context, q queryer, o rental.OverdueRecord) error {
	history, err := json.Marshal(nonNil(o.NotificationHistory))
	if err != nil {
		return fmt.Errorf("failed to encode notification history: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO overdue_records (id, contract_id, accumulated_overdue_fee, last_notification_date, notification_history_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contract_id = excluded.contract_id,
			accumulated_overdue_fee = excluded.accumulated_overdue_fee,
			last_notification_date = excluded.last_notification_date,
			notification_history_json = excluded.notification_history_json
	`, o.ID, o.ContractID, o.AccumulatedOverdueFee.String(), o.LastNotificationDate.String(), string(history))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &rental.ConflictError{Entity: "overdue record", Key: o.ContractID, Reason: "contract already tracked"}
		}
		return fmt.Errorf("failed to save overdue record: %w", err)
	}
	return nil
}

func putUser(ctx context.Context, q queryer, u rental.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, rental_company_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			rental_company_id = excluded.rental_company_id
	`, u.ID, u.Email, u.Name, u.Role, u.RentalCompanyID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &rental.ConflictError{Entity: "user", Key: u.Email, Reason: "email already registered"}
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func loadSnapshot(ctx context.Context, q queryer) (*rental.Snapshot, error) {
	snap := &rental.Snapshot{}
	var err error
	if snap.Companies, err = loadCompanies(ctx, q); err != nil {
		return nil, err
	}
	if snap.Forklifts, err = loadForklifts(ctx, q); err != nil {
		return nil, err
	}
	if snap.Lessees, err = loadLessees(ctx, q); err != nil {
		return nil, err
	}
	if snap.Contracts, err = loadContracts(ctx, q); err != nil {
		return nil, err
	}
	if snap.SettlementItems, err = loadSettlementItems(ctx, q); err != nil {
		return nil, err
	}
	if snap.OverdueRecords, err = loadOverdueRecords(ctx, q); err != nil {
		return nil, err
	}
	if snap.Users, err = loadUsers(ctx, q); err != nil {
		return nil, err
	}
	return snap, nil
}

// scanAll runs query and scans each row with scan.
func scanAll[T any](ctx context.Context, q queryer, table, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func loadCompanies(ctx context.Context, q queryer) ([]rental.RentalCompany, error) {
	return scanAll(ctx, q, "rental_companies", `
		SELECT id, name, registration_number, address, representative, phone, status, created_at, updated_at
		FROM rental_companies ORDER BY seq
	`, func(rows *sql.Rows) (rental.RentalCompany, error) {
		var c rental.RentalCompany
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.RegistrationNumber, &c.Address, &c.Representative,
			&c.Phone, &c.Status, &createdAt, &updatedAt); err != nil {
			return c, err
		}
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		return c, nil
	})
}

func loadForklifts(ctx context.Context, q queryer) ([]rental.Forklift, error) {
	return scanAll(ctx, q, "forklifts", `
		SELECT id, manufacturer, model, year, tonnage, type, chassis_number, gps_serial,
			purchase_date, purchase_price, withdrawal_date, location, notes, management_status,
			operation_status, current_contract_id, rental_company_id, maintenance_json
		FROM forklifts ORDER BY seq
	`, func(rows *sql.Rows) (rental.Forklift, error) {
		var f rental.Forklift
		var purchaseDate, purchasePrice, withdrawalDate, maintenance string
		if err := rows.Scan(&f.ID, &f.Manufacturer, &f.Model, &f.Year, &f.Tonnage, &f.Type,
			&f.ChassisNumber, &f.GPSSerial, &purchaseDate, &purchasePrice, &withdrawalDate,
			&f.Location, &f.Notes, &f.ManagementStatus, &f.OperationStatus, &f.CurrentContractID,
			&f.RentalCompanyID, &maintenance); err != nil {
			return f, err
		}
		f.PurchaseDate = parseDate(purchaseDate)
		f.WithdrawalDate = parseDate(withdrawalDate)
		f.PurchasePrice = parseMoney(purchasePrice)
		if err := json.Unmarshal([]byte(maintenance), &f.Maintenance); err != nil {
			return f, fmt.Errorf("forklift %s maintenance: %w", f.ID, err)
		}
		return f, nil
	})
}

func loadLessees(ctx context.Context, q queryer) ([]rental.Lessee, error) {
	return scanAll(ctx, q, "lessees", `
		SELECT id, name, registration_number, address, representative, phone, contract_ids_json
		FROM lessees ORDER BY seq
	`, func(rows *sql.Rows) (rental.Lessee, error) {
		var l rental.Lessee
		var ids string
		if err := rows.Scan(&l.ID, &l.Name, &l.RegistrationNumber, &l.Address, &l.Representative,
			&l.Phone, &ids); err != nil {
			return l, err
		}
		if err := json.Unmarshal([]byte(ids), &l.ContractIDs); err != nil {
			return l, fmt.Errorf("lessee %s contract ids: %w", l.ID, err)
		}
		return l, nil
	})
}

func loadContracts(ctx context.Context, q queryer) ([]rental.Contract, error) {
	return scanAll(ctx, q, "contracts", `
		SELECT id, lessee_id, forklift_id, contract_pdf_url, start_date, end_date, contract_type,
			status, rental_fee, shipping_cost, deposit, repair_cost, commission,
			early_termination_penalty, tax_invoice_issue_date, payment_due_date, payment_method,
			history_json, rental_company_id
		FROM contracts ORDER BY seq
	`, func(rows *sql.Rows) (rental.Contract, error) {
		var c rental.Contract
		var start, end, fee, taxDate, dueDate, history string
		var shipping, deposit, repair, commission, penalty sql.NullString
		if err := rows.Scan(&c.ID, &c.LesseeID, &c.ForkliftID, &c.ContractPDFURL, &start, &end,
			&c.Type, &c.Status, &fee, &shipping, &deposit, &repair, &commission, &penalty,
			&taxDate, &dueDate, &c.PaymentMethod, &history, &c.RentalCompanyID); err != nil {
			return c, err
		}
		c.StartDate = parseDate(start)
		c.EndDate = parseDate(end)
		c.TaxInvoiceIssueDate = parseDate(taxDate)
		c.PaymentDueDate = parseDate(dueDate)
		c.RentalFee = parseMoney(fee)
		c.ShippingCost = parseNullMoney(shipping)
		c.Deposit = parseNullMoney(deposit)
		c.RepairCost = parseNullMoney(repair)
		c.Commission = parseNullMoney(commission)
		c.EarlyTerminationPenalty = parseNullMoney(penalty)
		if err := json.Unmarshal([]byte(history), &c.History); err != nil {
			return c, fmt.Errorf("contract %s history: %w", c.ID, err)
		}
		return c, nil
	})
}

func loadSettlementItems(ctx context.Context, q queryer) ([]rental.SettlementItem, error) {
	return scanAll(ctx, q, "settlement_items", `
		SELECT id, contract_id, type, amount, date, status, description
		FROM settlement_items ORDER BY seq
	`, func(rows *sql.Rows) (rental.SettlementItem, error) {
		var item rental.SettlementItem
		var amount, date string
		if err := rows.Scan(&item.ID, &item.ContractID, &item.Type, &amount, &date, &item.Status,
			&item.Description); err != nil {
			return item, err
		}
		item.Amount = parseMoney(amount)
		item.Date = parseDate(date)
		return item, nil
	})
}

func loadOverdueRecords(ctx context.Context, q queryer) ([]rental.OverdueRecord, error) {
	return scanAll(ctx, q, "overdue_records", `
		SELECT id, contract_id, accumulated_overdue_fee, last_notification_date, notification_history_json
		FROM overdue_records ORDER BY seq
	`, func(rows *sql.Rows) (rental.OverdueRecord, error) {
		var o rental.OverdueRecord
		var fee, last, history string
		if err := rows.Scan(&o.ID, &o.ContractID, &fee, &last, &history); err != nil {
			return o, err
		}
		o.AccumulatedOverdueFee = parseMoney(fee)
		o.LastNotificationDate = parseDate(last)
		if err := json.Unmarshal([]byte(history), &o.NotificationHistory); err != nil {
			return o, fmt.Errorf("overdue record %s history: %w", o.ID, err)
		}
		return o, nil
	})
}

func loadUsers(ctx context.Context, q queryer) ([]rental.User, error) {
	return scanAll(ctx, q, "users", `
		SELECT id, email, name, role, rental_company_id FROM users ORDER BY seq
	`, func(rows *sql.Rows) (rental.User, error) {
		var u rental.User
		err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.RentalCompanyID)
		return u, err
	})
}

// =============================================================================
// RUN LOG (rental.RunLog)
// =============================================================================

func (s *Store) SaveOverdueRun(ctx context.Context, r rental.OverdueRun) error {
	var completedAt *string
	if r.CompletedAt != nil {
		v := formatTime(*r.CompletedAt)
		completedAt = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overdue_runs (id, as_of, run_trigger, status, created, refreshed, inconsistencies,
			error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			created = excluded.created,
			refreshed = excluded.refreshed,
			inconsistencies = excluded.inconsistencies,
			error = excluded.error,
			completed_at = excluded.completed_at
	`, r.ID, r.AsOf.String(), r.Trigger, r.Status, r.Created, r.Refreshed, r.Inconsistencies,
		r.Error, formatTime(r.StartedAt), completedAt)
	if err != nil {
		return fmt.Errorf("failed to save overdue run: %w", err)
	}
	return nil
}

func (s *Store) ListOverdueRuns(ctx context.Context, limit int) ([]rental.OverdueRun, error) {
	query := `
		SELECT id, as_of, run_trigger, status, created, refreshed, inconsistencies, error, started_at, completed_at
		FROM overdue_runs ORDER BY started_at DESC, rowid DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return scanAll(ctx, s.db, "overdue_runs", query, func(rows *sql.Rows) (rental.OverdueRun, error) {
		var r rental.OverdueRun
		var asOf, startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&r.ID, &asOf, &r.Trigger, &r.Status, &r.Created, &r.Refreshed,
			&r.Inconsistencies, &r.Error, &startedAt, &completedAt); err != nil {
			return r, err
		}
		r.AsOf = parseDate(asOf)
		r.StartedAt = parseTime(startedAt)
		if completedAt.Valid {
			t := parseTime(completedAt.String)
			r.CompletedAt = &t
		}
		return r, nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func parseDate(s string) rental.Date {
	d, _ := rental.ParseOptionalDate("date", s)
	return d
}

func parseMoney(s string) rental.Money {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return rental.Money{}
	}
	return rental.Money{Value: v}
}

func nullMoney(m *rental.Money) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: m.String(), Valid: true}
}

func parseNullMoney(ns sql.NullString) *rental.Money {
	if !ns.Valid {
		return nil
	}
	m := parseMoney(ns.String)
	return &m
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
