/*
dto.go - Request/response data structures for the HTTP API

All JSON is snake_case. Dates travel as "YYYY-MM-DD" strings and amounts as
bare numbers (or numeric strings) in KRW.

Request DTOs carry validator/v10 tags for shape checks (required fields,
enum membership, date layout). Domain rules that need the store (unique
chassis number, visible forklift, state machine) stay in package service.
*/
package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/warp/forklift-rental/importer"
	"github.com/warp/forklift-rental/rental"
)

// =============================================================================
// AMOUNTS
// =============================================================================

// Amount holds a request amount as sent, a JSON number or numeric string.
// It is parsed by the converters so errors carry the JSON field name.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// money parses a; an absent amount is zero.
func (a Amount) money(field string) (rental.Money, error) {
	if a == "" {
		return rental.Money{}, nil
	}
	return rental.ParseMoney(field, string(a))
}

// optionalMoney parses a; an absent amount stays nil.
func (a Amount) optionalMoney(field string) (*rental.Money, error) {
	if a == "" {
		return nil, nil
	}
	m, err := rental.ParseMoney(field, string(a))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// =============================================================================
// AUTH
// =============================================================================

type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      rental.User `json:"user"`
}

type MeResponse struct {
	User         rental.User         `json:"user"`
	Capabilities []rental.Capability `json:"capabilities"`
}

// =============================================================================
// COMPANIES
// =============================================================================

type CompanyRequest struct {
	Name               string `json:"name" validate:"required,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"max=50"`
	Address            string `json:"address" validate:"max=500"`
	Representative     string `json:"representative" validate:"max=100"`
	Phone              string `json:"phone" validate:"max=50"`
	Status             string `json:"status" validate:"omitempty,oneof=PREPARING ACTIVE SUSPENDED"`
}

func (req CompanyRequest) toCompany() rental.RentalCompany {
	return rental.RentalCompany{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Address:            req.Address,
		Representative:     req.Representative,
		Phone:              req.Phone,
		Status:             rental.CompanyStatus(req.Status),
	}
}

// =============================================================================
// FORKLIFTS
// =============================================================================

type ForkliftRequest struct {
	Manufacturer    string  `json:"manufacturer" validate:"required,max=100"`
	Model           string  `json:"model" validate:"required,max=100"`
	Year            int     `json:"year" validate:"gte=1900"`
	Tonnage         float64 `json:"tonnage" validate:"gte=0.1"`
	Type            string  `json:"type" validate:"required,max=50"`
	ChassisNumber   string  `json:"chassis_number" validate:"required,max=100"`
	GPSSerial       string  `json:"gps_serial" validate:"max=100"`
	PurchaseDate    string  `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice   Amount  `json:"purchase_price"`
	WithdrawalDate  string  `json:"withdrawal_date" validate:"omitempty,datetime=2006-01-02"`
	Location        string  `json:"location" validate:"required,max=200"`
	Notes           string  `json:"notes" validate:"max=1000"`
	RentalCompanyID string  `json:"rental_company_id"`
}

func (req ForkliftRequest) toForklift() (rental.Forklift, error) {
	purchased, err := rental.ParseOptionalDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return rental.Forklift{}, err
	}
	withdrawal, err := rental.ParseOptionalDate("withdrawal_date", req.WithdrawalDate)
	if err != nil {
		return rental.Forklift{}, err
	}
	if !purchased.IsZero() && !withdrawal.IsZero() && withdrawal.Before(purchased) {
		return rental.Forklift{}, &rental.ValidationError{Field: "withdrawal_date", Value: req.WithdrawalDate,
			Reason: "must not be before purchase_date"}
	}
	price, err := req.PurchasePrice.money("purchase_price")
	if err != nil {
		return rental.Forklift{}, err
	}
	return rental.Forklift{
		Manufacturer:    req.Manufacturer,
		Model:           req.Model,
		Year:            req.Year,
		Tonnage:         req.Tonnage,
		Type:            req.Type,
		ChassisNumber:   req.ChassisNumber,
		GPSSerial:       req.GPSSerial,
		PurchaseDate:    purchased,
		PurchasePrice:   price,
		WithdrawalDate:  withdrawal,
		Location:        req.Location,
		Notes:           req.Notes,
		RentalCompanyID: req.RentalCompanyID,
	}, nil
}

type MaintenanceRequest struct {
	Type             string `json:"type" validate:"required,oneof=PART_REPLACEMENT REPAIR OTHER"`
	Date             string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description      string `json:"description" validate:"max=1000"`
	Cost             Amount `json:"cost"`
	ResponsibleParty string `json:"responsible_party" validate:"omitempty,oneof=LESSEE LESSOR"`
}

// ForkliftTransitionRequest applies a management action. Maintenance is
// recorded with repair and replace_part.
type ForkliftTransitionRequest struct {
	Action      string              `json:"action" validate:"required"`
	Maintenance *MaintenanceRequest `json:"maintenance"`
}

func (req ForkliftTransitionRequest) toChange() (rental.ForkliftChange, error) {
	action, err := rental.ParseForkliftAction(req.Action)
	if err != nil {
		return rental.ForkliftChange{}, err
	}
	change := rental.ForkliftChange{Action: action}
	if req.Maintenance != nil {
		date, err := rental.ParseOptionalDate("maintenance.date", req.Maintenance.Date)
		if err != nil {
			return rental.ForkliftChange{}, err
		}
		cost, err := req.Maintenance.Cost.money("maintenance.cost")
		if err != nil {
			return rental.ForkliftChange{}, err
		}
		change.Entry = &rental.MaintenanceEntry{
			Type:             rental.MaintenanceType(req.Maintenance.Type),
			Date:             date,
			Description:      req.Maintenance.Description,
			Cost:             cost,
			ResponsibleParty: rental.ResponsibleParty(req.Maintenance.ResponsibleParty),
		}
	}
	return change, nil
}

type RemoteRequest struct {
	Action string `json:"action" validate:"required,oneof=remote_start remote_stop"`
}

// =============================================================================
// LESSEES & CONTRACTS
// =============================================================================

type LesseeRequest struct {
	Name               string `json:"name" validate:"required,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"max=50"`
	Address            string `json:"address" validate:"max=500"`
	Representative     string `json:"representative" validate:"max=100"`
	Phone              string `json:"phone" validate:"max=50"`
}

func (req LesseeRequest) toLessee() rental.Lessee {
	return rental.Lessee{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Address:            req.Address,
		Representative:     req.Representative,
		Phone:              req.Phone,
	}
}

type ContractRequest struct {
	LesseeID                string `json:"lessee_id" validate:"required"`
	ForkliftID              string `json:"forklift_id" validate:"required"`
	ContractPDFURL          string `json:"contract_pdf_url" validate:"omitempty,url"`
	StartDate               string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate                 string `json:"end_date" validate:"required,datetime=2006-01-02"`
	ContractType            string `json:"contract_type" validate:"required,oneof=SHORT_TERM LONG_TERM"`
	RentalFee               Amount `json:"rental_fee" validate:"required"`
	ShippingCost            Amount `json:"shipping_cost"`
	Deposit                 Amount `json:"deposit"`
	RepairCost              Amount `json:"repair_cost"`
	Commission              Amount `json:"commission"`
	EarlyTerminationPenalty Amount `json:"early_termination_penalty"`
	TaxInvoiceIssueDate     string `json:"tax_invoice_issue_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentDueDate          string `json:"payment_due_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod           string `json:"payment_method" validate:"required"`
}

func (req ContractRequest) toContract() (rental.Contract, error) {
	var (
		start, end, invoice, due rental.Date
		err                      error
	)
	if start, err = rental.ParseDate("start_date", req.StartDate); err != nil {
		return rental.Contract{}, err
	}
	if end, err = rental.ParseDate("end_date", req.EndDate); err != nil {
		return rental.Contract{}, err
	}
	if invoice, err = rental.ParseOptionalDate("tax_invoice_issue_date", req.TaxInvoiceIssueDate); err != nil {
		return rental.Contract{}, err
	}
	if due, err = rental.ParseOptionalDate("payment_due_date", req.PaymentDueDate); err != nil {
		return rental.Contract{}, err
	}
	c := rental.Contract{
		LesseeID:            req.LesseeID,
		ForkliftID:          req.ForkliftID,
		ContractPDFURL:      req.ContractPDFURL,
		StartDate:           start,
		EndDate:             end,
		Type:                rental.ContractType(req.ContractType),
		TaxInvoiceIssueDate: invoice,
		PaymentDueDate:      due,
		PaymentMethod:       rental.PaymentMethod(req.PaymentMethod),
	}
	if c.RentalFee, err = req.RentalFee.money("rental_fee"); err != nil {
		return rental.Contract{}, err
	}
	optional := []struct {
		field  string
		amount Amount
		dst    **rental.Money
	}{
		{"shipping_cost", req.ShippingCost, &c.ShippingCost},
		{"deposit", req.Deposit, &c.Deposit},
		{"repair_cost", req.RepairCost, &c.RepairCost},
		{"commission", req.Commission, &c.Commission},
		{"early_termination_penalty", req.EarlyTerminationPenalty, &c.EarlyTerminationPenalty},
	}
	for _, o := range optional {
		if *o.dst, err = o.amount.optionalMoney(o.field); err != nil {
			return rental.Contract{}, err
		}
	}
	return c, nil
}

type ExtendRequest struct {
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type TransitionRequest struct {
	Action string `json:"action" validate:"required"`
}

// ContractDTO adds what the contract screens show next to a contract.
type ContractDTO struct {
	rental.Contract
	LesseeName     string                  `json:"lessee_name"`
	AllowedActions []rental.ContractAction `json:"allowed_actions"`
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

type SettlementRequest struct {
	ContractID  string `json:"contract_id" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Amount      Amount `json:"amount"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"omitempty,oneof=PAID OVERDUE"`
	Description string `json:"description" validate:"max=500"`
}

func (req SettlementRequest) toItem() (rental.SettlementItem, error) {
	date, err := rental.ParseDate("date", req.Date)
	if err != nil {
		return rental.SettlementItem{}, err
	}
	amount, err := req.Amount.money("amount")
	if err != nil {
		return rental.SettlementItem{}, err
	}
	return rental.SettlementItem{
		ContractID:  req.ContractID,
		Type:        rental.SettlementType(req.Type),
		Amount:      amount,
		Date:        date,
		Status:      rental.SettlementStatus(req.Status),
		Description: req.Description,
	}, nil
}

// =============================================================================
// OVERDUE
// =============================================================================

type OverdueActionRequest struct {
	Action string `json:"action" validate:"required,oneof=request_payment deduct_deposit terminate certified_mail"`
}

// OverdueDTO is one row of the overdue screen. CurrentFee is recomputed as
// of today; AccumulatedOverdueFee is the value cached at the last
// notification or reconciliation.
type OverdueDTO struct {
	rental.OverdueRecord
	LesseeName     string       `json:"lessee_name"`
	ForkliftID     string       `json:"forklift_id"`
	RentalFee      rental.Money `json:"rental_fee"`
	PaymentDueDate rental.Date  `json:"payment_due_date"`
	DaysLate       int          `json:"days_late"`
	CurrentFee     rental.Money `json:"current_fee"`
}

// =============================================================================
// USERS
// =============================================================================

type UserRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,max=100"`
	Role            string `json:"role" validate:"required,oneof=OPERATION_TOOL_ADMIN BUSINESS_MANAGER OPERATOR"`
	RentalCompanyID string `json:"rental_company_id"`
}

func (req UserRequest) toUser() rental.User {
	return rental.User{
		Email:           req.Email,
		Name:            req.Name,
		Role:            rental.Role(req.Role),
		RentalCompanyID: req.RentalCompanyID,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response. Report is set when a
// spreadsheet import is rejected.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Details string           `json:"details,omitempty"`
	Fields  []FieldError     `json:"fields,omitempty"`
	Report  *importer.Report `json:"report,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
