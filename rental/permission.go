package rental

// Capability names a guarded area of the back office.
type Capability string

const (
	CapDashboard      Capability = "dashboard"
	CapForkliftsRead  Capability = "forklifts.read"
	CapForkliftsWrite Capability = "forklifts.write"
	CapCompanies      Capability = "companies"
	CapAccounts       Capability = "accounts"
	CapContracts      Capability = "contracts"
	CapLessees        Capability = "lessees"
	CapSettlements    Capability = "settlements"
	CapCalendar       Capability = "calendar"
	CapOverdue        Capability = "overdue"
)

var (
	everyone = []Role{RoleAdmin, RoleBusinessManager, RoleOperator}
	managers = []Role{RoleAdmin, RoleBusinessManager}
)

var capabilityRoles = map[Capability][]Role{
	CapDashboard:      everyone,
	CapForkliftsRead:  everyone,
	CapForkliftsWrite: managers,
	CapCompanies:      {RoleAdmin},
	CapAccounts:       managers,
	CapContracts:      managers,
	CapLessees:        managers,
	CapSettlements:    managers,
	CapCalendar:       managers,
	CapOverdue:        managers,
}

// Can reports whether actor holds capability. Unknown actors hold nothing.
func Can(actor *User, capability Capability) bool {
	if actor == nil {
		return false
	}
	for _, r := range capabilityRoles[capability] {
		if r == actor.Role {
			return true
		}
	}
	return false
}

// CanInvite applies the account invitation rule: admins invite anyone,
// business managers invite operators into their own company.
func CanInvite(actor *User, role Role, companyID string) bool {
	switch {
	case actor == nil || !role.Known():
		return false
	case actor.Role == RoleAdmin:
		return true
	case actor.Role == RoleBusinessManager:
		return role == RoleOperator && actor.RentalCompanyID != "" && companyID == actor.RentalCompanyID
	}
	return false
}
