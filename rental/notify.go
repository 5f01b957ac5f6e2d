package rental

// OverdueAction is an operator step taken on an overdue record.
type OverdueAction string

const (
	OverdueRequestPayment OverdueAction = "request_payment"
	OverdueDeductDeposit  OverdueAction = "deduct_deposit"
	OverdueTerminate      OverdueAction = "terminate"
	OverdueCertifiedMail  OverdueAction = "certified_mail"
)

var overdueCases = map[OverdueAction]OverdueCaseType{
	OverdueRequestPayment: CaseRentalFeeOverdue,
	OverdueDeductDeposit:  CaseDepositDeducted,
	OverdueTerminate:      CaseContractTerminated,
	OverdueCertifiedMail:  CaseCertifiedMail,
}

func ParseOverdueAction(s string) (OverdueAction, error) {
	a := OverdueAction(s)
	if _, ok := overdueCases[a]; !ok {
		return "", &ValidationError{Field: "action", Value: s, Reason: "unknown overdue action"}
	}
	return a, nil
}

// NotifyOverdue records action on o: the matching case is appended to the
// notification history, the notification date becomes today and the cached
// fee is replaced by fee. Deducting requires a deposit on the contract.
func NotifyOverdue(o OverdueRecord, c Contract, action OverdueAction, today Date, fee Money) (OverdueRecord, error) {
	caseType, ok := overdueCases[action]
	if !ok {
		return o, &ValidationError{Field: "action", Value: string(action), Reason: "unknown overdue action"}
	}
	if action == OverdueDeductDeposit && (c.Deposit == nil || !c.Deposit.GreaterThan(Money{})) {
		return o, &ValidationError{Field: "action", Value: string(action), Reason: "contract has no deposit to deduct"}
	}
	next := o.Clone()
	next.NotificationHistory = append(next.NotificationHistory, caseType)
	next.LastNotificationDate = today
	next.AccumulatedOverdueFee = fee
	return next, nil
}
