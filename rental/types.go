/*
Package rental is the domain core of the forklift rental back office.

KEY CONCEPTS IN THIS FILE (types.go):
  - RentalCompany: the tenant; every other record scopes to exactly one
  - Forklift: a rentable asset with management and operation status
  - Lessee: a customer, scoped transitively through its contracts
  - Contract: binds a lessee to a forklift; owns an append-only history
  - SettlementItem: one ledger line of a contract (revenue or cost)
  - OverdueRecord: arrears tracking for one contract
  - User: an actor with a role and, unless admin, one company

DERIVATIONS (pure, snapshot in, value out):
  - access.go:     Visible, VisibleSnapshot (role scoping)
  - overdue.go:    Calculator.Fee (overdue amount as of a date)
  - calendar.go:   EventsOn (payment due / tax invoice / contract end)
  - settlement.go: Aggregate (revenue/cost buckets)

SEE ALSO:
  - lifecycle.go: contract and forklift state machines
  - store.go: Store interface and Snapshot
*/
package rental

import "time"

// =============================================================================
// ENUMS
// =============================================================================

type CompanyStatus string

const (
	CompanyPreparing CompanyStatus = "PREPARING"
	CompanyActive    CompanyStatus = "ACTIVE"
	CompanySuspended CompanyStatus = "SUSPENDED"
)

type ManagementStatus string

const (
	InStorage       ManagementStatus = "IN_STORAGE"
	Rented          ManagementStatus = "RENTED"
	OnLoan          ManagementStatus = "ON_LOAN"
	UnderRepair     ManagementStatus = "UNDER_REPAIR"
	PartReplacement ManagementStatus = "PART_REPLACEMENT"
	OverdueRecovery ManagementStatus = "OVERDUE_RECOVERY"
	Disposed        ManagementStatus = "DISPOSED"
)

type OperationStatus string

const (
	OpChecking      OperationStatus = "CHECKING"
	OpUnavailable   OperationStatus = "UNAVAILABLE"
	OpOperating     OperationStatus = "OPERATING"
	OpStopped       OperationStatus = "STOPPED"
	OpRemoteStopped OperationStatus = "REMOTE_STOPPED"
)

type ContractType string

const (
	ShortTerm ContractType = "SHORT_TERM"
	LongTerm  ContractType = "LONG_TERM"
)

type ContractStatus string

const (
	ContractRenting          ContractStatus = "RENTING"
	ContractEnded            ContractStatus = "CONTRACT_ENDED"
	ContractTerminated       ContractStatus = "MID_TERM_TERMINATION"
	ContractOnHold           ContractStatus = "ON_HOLD"
	ContractAwaitingRecovery ContractStatus = "AWAITING_RECOVERY"
)

// Closed reports whether the contract no longer runs.
func (s ContractStatus) Closed() bool {
	return s == ContractEnded || s == ContractTerminated
}

type PaymentMethod string

const (
	PayCMS5th              PaymentMethod = "CMS_5TH"
	PayCMS15th             PaymentMethod = "CMS_15TH"
	PayCMS25th             PaymentMethod = "CMS_25TH"
	PayMonthEndTransfer    PaymentMethod = "MONTH_END_BANK_TRANSFER"
	PayAfter30DaysTransfer PaymentMethod = "AFTER_30_DAYS_BANK_TRANSFER"
	PayAfter45DaysTransfer PaymentMethod = "AFTER_45_DAYS_BANK_TRANSFER"
	PayBankTransfer        PaymentMethod = "BANK_TRANSFER"
	PayCreditCard          PaymentMethod = "CREDIT_CARD"
)

type HistoryType string

const (
	HistorySigned    HistoryType = "CONTRACT_SIGNED"
	HistoryStarted   HistoryType = "RENTAL_START"
	HistoryDelivered HistoryType = "FORKLIFT_DELIVERED"
	HistoryExtended  HistoryType = "CONTRACT_EXTENDED"
	HistoryEnded     HistoryType = "CONTRACT_ENDED"
)

type SettlementType string

const (
	SettleRentalFee        SettlementType = "RENTAL_FEE"
	SettleShippingCost     SettlementType = "SHIPPING_COST"
	SettleDeposit          SettlementType = "DEPOSIT"
	SettleRepairCost       SettlementType = "REPAIR_COST"
	SettleCommission       SettlementType = "COMMISSION"
	SettleEarlyTermination SettlementType = "EARLY_TERMINATION_PENALTY"
)

// IsRevenue classifies RENTAL_FEE and DEPOSIT as revenue; everything else is cost.
func (t SettlementType) IsRevenue() bool {
	return t == SettleRentalFee || t == SettleDeposit
}

type SettlementStatus string

const (
	SettlementPaid    SettlementStatus = "PAID"
	SettlementOverdue SettlementStatus = "OVERDUE"
)

type OverdueCaseType string

const (
	CaseRentalFeeOverdue   OverdueCaseType = "RENTAL_FEE_OVERDUE"
	CaseDepositDeducted    OverdueCaseType = "DEPOSIT_DEDUCTED"
	CaseContractTerminated OverdueCaseType = "CONTRACT_TERMINATED"
	CaseCertifiedMail      OverdueCaseType = "CERTIFIED_MAIL"
)

type Role string

const (
	RoleAdmin           Role = "OPERATION_TOOL_ADMIN"
	RoleBusinessManager Role = "BUSINESS_MANAGER"
	RoleOperator        Role = "OPERATOR"
)

func (r Role) Known() bool {
	return r == RoleAdmin || r == RoleBusinessManager || r == RoleOperator
}

type MaintenanceType string

const (
	MaintenancePartReplacement MaintenanceType = "PART_REPLACEMENT"
	MaintenanceRepair          MaintenanceType = "REPAIR"
	MaintenanceOther           MaintenanceType = "OTHER"
)

type ResponsibleParty string

const (
	PartyLessee ResponsibleParty = "LESSEE"
	PartyLessor ResponsibleParty = "LESSOR"
)

// =============================================================================
// ENTITIES
// =============================================================================

type RentalCompany struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	RegistrationNumber string        `json:"registration_number"`
	Address            string        `json:"address"`
	Representative     string        `json:"representative"`
	Phone              string        `json:"phone"`
	Status             CompanyStatus `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type MaintenanceEntry struct {
	Type             MaintenanceType  `json:"type"`
	Date             Date             `json:"date"`
	Description      string           `json:"description"`
	Cost             Money            `json:"cost"`
	ResponsibleParty ResponsibleParty `json:"responsible_party"`
}

type Forklift struct {
	ID                string             `json:"id"`
	Manufacturer      string             `json:"manufacturer"`
	Model             string             `json:"model"`
	Year              int                `json:"year"`
	Tonnage           float64            `json:"tonnage"`
	Type              string             `json:"type"`
	ChassisNumber     string             `json:"chassis_number"`
	GPSSerial         string             `json:"gps_serial,omitempty"`
	PurchaseDate      Date               `json:"purchase_date"`
	PurchasePrice     Money              `json:"purchase_price"`
	WithdrawalDate    Date               `json:"withdrawal_date"`
	Location          string             `json:"location"`
	Notes             string             `json:"notes,omitempty"`
	ManagementStatus  ManagementStatus   `json:"management_status"`
	OperationStatus   OperationStatus    `json:"operation_status,omitempty"`
	CurrentContractID string             `json:"current_contract_id,omitempty"`
	RentalCompanyID   string             `json:"rental_company_id"`
	Maintenance       []MaintenanceEntry `json:"maintenance,omitempty"`
}

type Lessee struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	RegistrationNumber string   `json:"registration_number"`
	Address            string   `json:"address"`
	Representative     string   `json:"representative"`
	Phone              string   `json:"phone"`
	ContractIDs        []string `json:"contract_ids"`
}

type HistoryEntry struct {
	Type        HistoryType `json:"type"`
	Date        Date        `json:"date"`
	Description string      `json:"description"`
}

type Contract struct {
	ID                      string         `json:"id"`
	LesseeID                string         `json:"lessee_id"`
	ForkliftID              string         `json:"forklift_id"`
	ContractPDFURL          string         `json:"contract_pdf_url,omitempty"`
	StartDate               Date           `json:"start_date"`
	EndDate                 Date           `json:"end_date"`
	Type                    ContractType   `json:"contract_type"`
	Status                  ContractStatus `json:"status"`
	RentalFee               Money          `json:"rental_fee"`
	ShippingCost            *Money         `json:"shipping_cost,omitempty"`
	Deposit                 *Money         `json:"deposit,omitempty"`
	RepairCost              *Money         `json:"repair_cost,omitempty"`
	Commission              *Money         `json:"commission,omitempty"`
	EarlyTerminationPenalty *Money         `json:"early_termination_penalty,omitempty"`
	TaxInvoiceIssueDate     Date           `json:"tax_invoice_issue_date"`
	PaymentDueDate          Date           `json:"payment_due_date"`
	PaymentMethod           PaymentMethod  `json:"payment_method"`
	History                 []HistoryEntry `json:"history"`
	RentalCompanyID         string         `json:"rental_company_id"`
}

type SettlementItem struct {
	ID          string           `json:"id"`
	ContractID  string           `json:"contract_id"`
	Type        SettlementType   `json:"type"`
	Amount      Money            `json:"amount"`
	Date        Date             `json:"date"`
	Status      SettlementStatus `json:"status"`
	Description string           `json:"description,omitempty"`
}

type OverdueRecord struct {
	ID                    string            `json:"id"`
	ContractID            string            `json:"contract_id"`
	AccumulatedOverdueFee Money             `json:"accumulated_overdue_fee"`
	LastNotificationDate  Date              `json:"last_notification_date"`
	NotificationHistory   []OverdueCaseType `json:"notification_history"`
}

type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            Role   `json:"role"`
	RentalCompanyID string `json:"rental_company_id,omitempty"`
}

// =============================================================================
// CLONING - records handed to a Store never share slices with the caller
// =============================================================================

func (f Forklift) Clone() Forklift {
	f.Maintenance = append([]MaintenanceEntry(nil), f.Maintenance...)
	return f
}

func (l Lessee) Clone() Lessee {
	l.ContractIDs = append([]string(nil), l.ContractIDs...)
	return l
}

func (c Contract) Clone() Contract {
	c.History = append([]HistoryEntry(nil), c.History...)
	c.ShippingCost = cloneMoney(c.ShippingCost)
	c.Deposit = cloneMoney(c.Deposit)
	c.RepairCost = cloneMoney(c.RepairCost)
	c.Commission = cloneMoney(c.Commission)
	c.EarlyTerminationPenalty = cloneMoney(c.EarlyTerminationPenalty)
	return c
}

func (o OverdueRecord) Clone() OverdueRecord {
	o.NotificationHistory = append([]OverdueCaseType(nil), o.NotificationHistory...)
	return o
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
