package rental

import "context"

// =============================================================================
// SNAPSHOT - Immutable, consistent view of every collection
// =============================================================================

// Snapshot holds every collection in insertion order. A Snapshot returned by
// a Store must not be modified; derivations only read it.
type Snapshot struct {
	Companies       []RentalCompany
	Forklifts       []Forklift
	Lessees         []Lessee
	Contracts       []Contract
	SettlementItems []SettlementItem
	OverdueRecords  []OverdueRecord
	Users           []User
}

func (s *Snapshot) Company(id string) (RentalCompany, bool) {
	for _, c := range s.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return RentalCompany{}, false
}

func (s *Snapshot) Forklift(id string) (Forklift, bool) {
	for _, f := range s.Forklifts {
		if f.ID == id {
			return f, true
		}
	}
	return Forklift{}, false
}

func (s *Snapshot) Lessee(id string) (Lessee, bool) {
	for _, l := range s.Lessees {
		if l.ID == id {
			return l, true
		}
	}
	return Lessee{}, false
}

func (s *Snapshot) Contract(id string) (Contract, bool) {
	for _, c := range s.Contracts {
		if c.ID == id {
			return c, true
		}
	}
	return Contract{}, false
}

func (s *Snapshot) OverdueRecord(id string) (OverdueRecord, bool) {
	for _, o := range s.OverdueRecords {
		if o.ID == id {
			return o, true
		}
	}
	return OverdueRecord{}, false
}

// OverdueRecordFor finds the record tracking contractID.
func (s *Snapshot) OverdueRecordFor(contractID string) (OverdueRecord, bool) {
	for _, o := range s.OverdueRecords {
		if o.ContractID == contractID {
			return o, true
		}
	}
	return OverdueRecord{}, false
}

func (s *Snapshot) UserByEmail(email string) (User, bool) {
	for _, u := range s.Users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func (s *Snapshot) User(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// =============================================================================
// STORE - Entity persistence contract
// =============================================================================

// Store persists records keyed by id. Put of an existing id replaces the
// record in place; a new id is appended.
type Store interface {
	// Snapshot returns a consistent view. Writers never mutate a snapshot
	// already handed out.
	Snapshot(ctx context.Context) (*Snapshot, error)

	PutCompany(ctx context.Context, c RentalCompany) error
	DeleteCompany(ctx context.Context, id string) error
	PutForklift(ctx context.Context, f Forklift) error
	PutLessee(ctx context.Context, l Lessee) error
	PutContract(ctx context.Context, c Contract) error
	PutSettlementItem(ctx context.Context, item SettlementItem) error
	PutOverdueRecord(ctx context.Context, o OverdueRecord) error
	PutUser(ctx context.Context, u User) error

	// WithTx runs fn atomically. Reads through tx observe tx's own writes;
	// if fn returns an error nothing it wrote becomes visible.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
