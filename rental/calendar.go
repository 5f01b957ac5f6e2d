package rental

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownLabel substitutes for names behind dangling references.
const UnknownLabel = "unknown"

type EventType string

const (
	EventPaymentDue  EventType = "PAYMENT_DUE"
	EventTaxInvoice  EventType = "TAX_INVOICE_ISSUANCE"
	EventContractEnd EventType = "CONTRACT_END"
)

type Event struct {
	Type        EventType `json:"type"`
	Date        Date      `json:"date"`
	Description string    `json:"description"`
	ContractID  string    `json:"contract_id"`
	LesseeName  string    `json:"lessee_name"`
}

// DayEvents groups the events of one calendar day.
type DayEvents struct {
	Date   Date    `json:"date"`
	Events []Event `json:"events"`
}

var amountPrinter = message.NewPrinter(language.Korean)

// EventsOn lists the events falling exactly on date, in contract order. Each
// contract contributes payment due, tax invoice and contract end events in
// that order, one per matching field.
func EventsOn(date Date, contracts []Contract, lessees []Lessee) []Event {
	names := lesseeNames(lessees)
	events := []Event{}
	for _, c := range contracts {
		events = appendContractEvents(events, date, c, names)
	}
	return events
}

// EventsBetween groups events by day over p, skipping empty days.
func EventsBetween(p Period, contracts []Contract, lessees []Lessee) []DayEvents {
	names := lesseeNames(lessees)
	days := []DayEvents{}
	for _, d := range p.Days() {
		var events []Event
		for _, c := range contracts {
			events = appendContractEvents(events, d, c, names)
		}
		if len(events) > 0 {
			days = append(days, DayEvents{Date: d, Events: events})
		}
	}
	return days
}

func appendContractEvents(events []Event, date Date, c Contract, names map[string]string) []Event {
	lessee, ok := names[c.LesseeID]
	if !ok {
		lessee = UnknownLabel
	}
	if !c.PaymentDueDate.IsZero() && c.PaymentDueDate.Equal(date) {
		events = append(events, Event{
			Type:        EventPaymentDue,
			Date:        date,
			Description: amountPrinter.Sprintf("%s rental fee payment due (%d KRW)", lessee, c.RentalFee.Int64()),
			ContractID:  c.ID,
			LesseeName:  lessee,
		})
	}
	if !c.TaxInvoiceIssueDate.IsZero() && c.TaxInvoiceIssueDate.Equal(date) {
		events = append(events, Event{
			Type:        EventTaxInvoice,
			Date:        date,
			Description: lessee + " tax invoice issuance",
			ContractID:  c.ID,
			LesseeName:  lessee,
		})
	}
	if !c.EndDate.IsZero() && c.EndDate.Equal(date) {
		events = append(events, Event{
			Type:        EventContractEnd,
			Date:        date,
			Description: lessee + " contract end",
			ContractID:  c.ID,
			LesseeName:  lessee,
		})
	}
	return events
}

func lesseeNames(lessees []Lessee) map[string]string {
	names := make(map[string]string, len(lessees))
	for _, l := range lessees {
		names[l.ID] = l.Name
	}
	return names
}
