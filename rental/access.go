/*
access.go - Role-based scoping of record lists

PURPOSE:
  Decides which records an actor may see. This is the only authorization
  boundary in the system: every record belongs to exactly one rental
  company, and non-admin actors see their own company's records only.

RULES:
  - OPERATION_TOOL_ADMIN: the input list is returned as is.
  - BUSINESS_MANAGER / OPERATOR with a company: records whose resolved
    company equals the actor's.
  - nil actor, unknown role, or non-admin without a company: empty.

RESOLUTION:
  Companies, forklifts, contracts and users carry the company id directly.
  Settlement items and overdue records resolve through their contract. A
  lessee resolves through every contract naming it, so a lessee renting from
  two companies is visible to both. Dangling references resolve to nothing
  and are therefore hidden from non-admins.
*/
package rental

// Visible filters items down to those whose resolved companies include the
// actor's. companiesOf may return several ids for one record.
func Visible[T any](actor *User, items []T, companiesOf func(T) []string) []T {
	if actor == nil || !actor.Role.Known() {
		return []T{}
	}
	if actor.Role == RoleAdmin {
		return items
	}
	if actor.RentalCompanyID == "" {
		return []T{}
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, id := range companiesOf(item) {
			if id == actor.RentalCompanyID {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// CanSee reports whether a single record passes Visible.
func CanSee[T any](actor *User, item T, companiesOf func(T) []string) bool {
	return len(Visible(actor, []T{item}, companiesOf)) == 1
}

// =============================================================================
// SCOPE - company resolution against a snapshot
// =============================================================================

// Scope resolves the owning companies of records that don't carry one.
type Scope struct {
	contractCompany map[string]string
	lesseeCompanies map[string][]string
}

func NewScope(s *Snapshot) *Scope {
	sc := &Scope{
		contractCompany: make(map[string]string, len(s.Contracts)),
		lesseeCompanies: make(map[string][]string),
	}
	for _, c := range s.Contracts {
		sc.contractCompany[c.ID] = c.RentalCompanyID
		sc.lesseeCompanies[c.LesseeID] = append(sc.lesseeCompanies[c.LesseeID], c.RentalCompanyID)
	}
	return sc
}

func (sc *Scope) Company(c RentalCompany) []string { return []string{c.ID} }
func (sc *Scope) Forklift(f Forklift) []string     { return []string{f.RentalCompanyID} }
func (sc *Scope) Contract(c Contract) []string     { return []string{c.RentalCompanyID} }
func (sc *Scope) User(u User) []string             { return []string{u.RentalCompanyID} }

func (sc *Scope) Lessee(l Lessee) []string { return sc.lesseeCompanies[l.ID] }

func (sc *Scope) SettlementItem(item SettlementItem) []string {
	return sc.viaContract(item.ContractID)
}

func (sc *Scope) OverdueRecord(o OverdueRecord) []string {
	return sc.viaContract(o.ContractID)
}

func (sc *Scope) viaContract(contractID string) []string {
	id, ok := sc.contractCompany[contractID]
	if !ok {
		return nil
	}
	return []string{id}
}

// =============================================================================
// SNAPSHOT VIEW
// =============================================================================

// VisibleSnapshot scopes every collection of s to actor. Contracts drive the
// transitive resolution, so it is computed from the unfiltered snapshot.
func VisibleSnapshot(actor *User, s *Snapshot) *Snapshot {
	sc := NewScope(s)
	return &Snapshot{
		Companies:       Visible(actor, s.Companies, sc.Company),
		Forklifts:       Visible(actor, s.Forklifts, sc.Forklift),
		Lessees:         Visible(actor, s.Lessees, sc.Lessee),
		Contracts:       Visible(actor, s.Contracts, sc.Contract),
		SettlementItems: Visible(actor, s.SettlementItems, sc.SettlementItem),
		OverdueRecords:  Visible(actor, s.OverdueRecords, sc.OverdueRecord),
		Users:           Visible(actor, s.Users, sc.User),
	}
}
