/*
seed.go - Demo data for development environments

WHAT GETS LOADED:
  Two rental companies, one user per role, five forklifts, three lessees
  and three contracts. Dates are relative to today so the calendar and the
  overdue screen always have something to show:

    contract-1  Daehan / Hanbit Logistics     payment due in 5 days
    contract-2  Busan  / Seoul Cold Chain     payment due in 12 days
    contract-3  Busan  / Hanbit Logistics     payment 20 days late (OVERDUE)

  Hanbit Logistics rents from both companies, so it is visible to both
  business managers.

NOTE:
  SeedDemo does nothing when the store already holds a rental company.
*/
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/forklift-rental/rental"
)

// Demo login emails
const (
	DemoAdminEmail    = "admin@forklift.local"
	DemoManagerEmail  = "manager@daehan.local"
	DemoOperatorEmail = "operator@daehan.local"
	DemoBusanEmail    = "manager@busan.local"
)

// SeedDemo loads the demo data set. It reports whether anything was written.
func (s *Service) SeedDemo(ctx context.Context) (bool, error) {
	seeded := false
	err := s.store.WithTx(ctx, func(tx rental.Store) error {
		snap, err := s.snapshot(ctx, tx)
		if err != nil {
			return err
		}
		if len(snap.Companies) > 0 {
			return nil
		}
		seeded = true
		return s.writeDemo(ctx, tx, demoData(s.Today(), s.now().UTC(), s.calc))
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed demo data: %w", err)
	}
	if seeded {
		s.log.Info("demo data loaded", zap.String("admin", DemoAdminEmail), zap.String("manager", DemoManagerEmail))
	}
	return seeded, nil
}

func (s *Service) writeDemo(ctx context.Context, tx rental.Store, d *rental.Snapshot) error {
	for _, c := range d.Companies {
		if err := tx.PutCompany(ctx, c); err != nil {
			return err
		}
	}
	for _, u := range d.Users {
		if err := tx.PutUser(ctx, u); err != nil {
			return err
		}
	}
	for _, f := range d.Forklifts {
		if err := tx.PutForklift(ctx, f); err != nil {
			return err
		}
	}
	for _, l := range d.Lessees {
		if err := tx.PutLessee(ctx, l); err != nil {
			return err
		}
	}
	for _, c := range d.Contracts {
		if err := tx.PutContract(ctx, c); err != nil {
			return err
		}
	}
	for _, item := range d.SettlementItems {
		if err := tx.PutSettlementItem(ctx, item); err != nil {
			return err
		}
	}
	for _, o := range d.OverdueRecords {
		if err := tx.PutOverdueRecord(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func demoData(today rental.Date, now time.Time, calc rental.Calculator) *rental.Snapshot {
	won := func(n int64) *rental.Money { m := rental.Won(n); return &m }
	day := today.AddDays

	companies := []rental.RentalCompany{
		{ID: "company-daehan", Name: "Daehan Forklift Rental", RegistrationNumber: "123-45-67890",
			Address: "12 Gajeong-ro, Seo-gu, Incheon", Representative: "Kim Minjun", Phone: "032-555-0101",
			Status: rental.CompanyActive, CreatedAt: now, UpdatedAt: now},
		{ID: "company-busan", Name: "Busan Logistics Equipment", RegistrationNumber: "234-56-78901",
			Address: "88 Jungang-daero, Dong-gu, Busan", Representative: "Lee Seoyeon", Phone: "051-555-0202",
			Status: rental.CompanyActive, CreatedAt: now, UpdatedAt: now},
	}

	users := []rental.User{
		{ID: "user-admin", Email: DemoAdminEmail, Name: "Operations Admin", Role: rental.RoleAdmin},
		{ID: "user-daehan-bm", Email: DemoManagerEmail, Name: "Park Jiho", Role: rental.RoleBusinessManager, RentalCompanyID: "company-daehan"},
		{ID: "user-daehan-op", Email: DemoOperatorEmail, Name: "Choi Yuna", Role: rental.RoleOperator, RentalCompanyID: "company-daehan"},
		{ID: "user-busan-bm", Email: DemoBusanEmail, Name: "Jung Hoon", Role: rental.RoleBusinessManager, RentalCompanyID: "company-busan"},
	}

	forklift := func(id, company, model, chassis string, year int, tonnage float64, status rental.ManagementStatus, contract string) rental.Forklift {
		op := rental.OpStopped
		if status == rental.Rented {
			op = rental.OpOperating
		}
		return rental.Forklift{
			ID: id, Manufacturer: "Doosan", Model: model, Year: year, Tonnage: tonnage, Type: "Diesel",
			ChassisNumber: chassis, GPSSerial: "GPS-" + chassis,
			PurchaseDate: rental.NewDate(year, 3, 2), PurchasePrice: rental.Won(32_000_000),
			WithdrawalDate: rental.NewDate(year+10, 3, 2), Location: "Yard A",
			ManagementStatus: status, OperationStatus: op, CurrentContractID: contract, RentalCompanyID: company,
		}
	}
	repairing := forklift("forklift-3", "company-daehan", "D25S-7", "DH-25-0003", 2019, 2.5, rental.UnderRepair, "")
	repairing.Maintenance = []rental.MaintenanceEntry{{
		Type: rental.MaintenanceRepair, Date: day(-3), Description: "hydraulic hose replaced",
		Cost: rental.Won(250_000), ResponsibleParty: rental.PartyLessor,
	}}
	forklifts := []rental.Forklift{
		forklift("forklift-1", "company-daehan", "D30S-7", "DH-30-0001", 2021, 3.0, rental.Rented, "contract-1"),
		forklift("forklift-2", "company-daehan", "D30S-7", "DH-30-0002", 2022, 3.0, rental.InStorage, ""),
		repairing,
		forklift("forklift-4", "company-busan", "D50C-9", "BS-50-0004", 2020, 5.0, rental.Rented, "contract-2"),
		forklift("forklift-5", "company-busan", "B20X-7", "BS-20-0005", 2023, 2.0, rental.Rented, "contract-3"),
	}

	lessees := []rental.Lessee{
		{ID: "lessee-hanbit", Name: "Hanbit Logistics", RegistrationNumber: "345-67-89012",
			Address: "5 Namdong-daero, Incheon", Representative: "Yoon Daeho", Phone: "032-555-0303",
			ContractIDs: []string{"contract-1", "contract-3"}},
		{ID: "lessee-coldchain", Name: "Seoul Cold Chain", RegistrationNumber: "456-78-90123",
			Address: "21 Songpa-daero, Seoul", Representative: "Han Sora", Phone: "02-555-0404",
			ContractIDs: []string{"contract-2"}},
		{ID: "lessee-haneul", Name: "Haneul Steel", RegistrationNumber: "567-89-01234",
			Address: "3 Suyeong-ro, Busan", Representative: "Kang Eunji", Phone: "051-555-0505",
			ContractIDs: []string{}},
	}

	signed := func(on rental.Date) []rental.HistoryEntry {
		return []rental.HistoryEntry{
			{Type: rental.HistorySigned, Date: on, Description: "contract signed"},
			{Type: rental.HistoryDelivered, Date: on.AddDays(2), Description: "forklift delivered"},
			{Type: rental.HistoryStarted, Date: on.AddDays(2), Description: "rental started"},
		}
	}
	contracts := []rental.Contract{
		{ID: "contract-1", LesseeID: "lessee-hanbit", ForkliftID: "forklift-1",
			StartDate: day(-58), EndDate: day(307), Type: rental.LongTerm, Status: rental.ContractRenting,
			RentalFee: rental.Won(1_000_000), ShippingCost: won(150_000), Deposit: won(3_000_000),
			TaxInvoiceIssueDate: today, PaymentDueDate: day(5), PaymentMethod: rental.PayCMS5th,
			History: signed(day(-60)), RentalCompanyID: "company-daehan"},
		{ID: "contract-2", LesseeID: "lessee-coldchain", ForkliftID: "forklift-4",
			StartDate: day(-10), EndDate: day(20), Type: rental.ShortTerm, Status: rental.ContractRenting,
			RentalFee: rental.Won(800_000), ShippingCost: won(200_000),
			TaxInvoiceIssueDate: day(2), PaymentDueDate: day(12), PaymentMethod: rental.PayBankTransfer,
			History: signed(day(-12)), RentalCompanyID: "company-busan"},
		{ID: "contract-3", LesseeID: "lessee-hanbit", ForkliftID: "forklift-5",
			StartDate: day(-80), EndDate: day(285), Type: rental.LongTerm, Status: rental.ContractRenting,
			RentalFee: rental.Won(1_200_000), Deposit: won(2_000_000), Commission: won(50_000),
			TaxInvoiceIssueDate: day(-25), PaymentDueDate: day(-20), PaymentMethod: rental.PayMonthEndTransfer,
			History: signed(day(-82)), RentalCompanyID: "company-busan"},
	}

	settlements := []rental.SettlementItem{
		{ID: "settlement-1", ContractID: "contract-1", Type: rental.SettleDeposit, Amount: rental.Won(3_000_000), Date: day(-58), Status: rental.SettlementPaid},
		{ID: "settlement-2", ContractID: "contract-1", Type: rental.SettleShippingCost, Amount: rental.Won(150_000), Date: day(-58), Status: rental.SettlementPaid},
		{ID: "settlement-3", ContractID: "contract-1", Type: rental.SettleRentalFee, Amount: rental.Won(1_000_000), Date: day(-25), Status: rental.SettlementPaid},
		{ID: "settlement-4", ContractID: "contract-2", Type: rental.SettleShippingCost, Amount: rental.Won(200_000), Date: day(-10), Status: rental.SettlementPaid},
		{ID: "settlement-5", ContractID: "contract-3", Type: rental.SettleDeposit, Amount: rental.Won(2_000_000), Date: day(-80), Status: rental.SettlementPaid},
		{ID: "settlement-6", ContractID: "contract-3", Type: rental.SettleCommission, Amount: rental.Won(50_000), Date: day(-80), Status: rental.SettlementPaid},
		{ID: "settlement-7", ContractID: "contract-3", Type: rental.SettleRentalFee, Amount: rental.Won(1_200_000), Date: day(-20), Status: rental.SettlementOverdue,
			Description: "monthly rental fee unpaid"},
	}

	overdue := []rental.OverdueRecord{{
		ID:                    "overdue-1",
		ContractID:            "contract-3",
		AccumulatedOverdueFee: calc.Fee(contracts[2], today),
		LastNotificationDate:  day(-10),
		NotificationHistory:   []rental.OverdueCaseType{rental.CaseRentalFeeOverdue},
	}}

	return &rental.Snapshot{
		Companies:       companies,
		Forklifts:       forklifts,
		Lessees:         lessees,
		Contracts:       contracts,
		SettlementItems: settlements,
		OverdueRecords:  overdue,
		Users:           users,
	}
}
