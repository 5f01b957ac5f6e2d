package rental

import "sort"

// =============================================================================
// SETTLEMENT AGGREGATION
// =============================================================================

type Bucket struct {
	Key     string `json:"key"`
	Revenue Money  `json:"revenue"`
	Cost    Money  `json:"cost"`
}

func (b Bucket) Net() Money { return b.Revenue.Sub(b.Cost) }

type Report struct {
	Granularity  Granularity `json:"granularity"`
	Buckets      []Bucket    `json:"buckets"`
	TotalRevenue Money       `json:"total_revenue"`
	TotalCost    Money       `json:"total_cost"`
	Net          Money       `json:"net"`
}

// Aggregate groups items into g-sized buckets ordered by ascending key.
// Input order does not affect the result.
func Aggregate(items []SettlementItem, g Granularity) Report {
	byKey := make(map[string]*Bucket)
	for _, item := range items {
		key := g.BucketKey(item.Date)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key}
			byKey[key] = b
		}
		if item.Type.IsRevenue() {
			b.Revenue = b.Revenue.Add(item.Amount)
		} else {
			b.Cost = b.Cost.Add(item.Amount)
		}
	}

	report := Report{Granularity: g, Buckets: make([]Bucket, 0, len(byKey))}
	for _, b := range byKey {
		report.Buckets = append(report.Buckets, *b)
	}
	sort.Slice(report.Buckets, func(i, j int) bool {
		return report.Buckets[i].Key < report.Buckets[j].Key
	})
	for _, b := range report.Buckets {
		report.TotalRevenue = report.TotalRevenue.Add(b.Revenue)
		report.TotalCost = report.TotalCost.Add(b.Cost)
	}
	report.Net = report.TotalRevenue.Sub(report.TotalCost)
	return report
}

// FilterSettlements keeps items of type t; the empty type keeps everything.
func FilterSettlements(items []SettlementItem, t SettlementType) []SettlementItem {
	if t == "" {
		return items
	}
	out := make([]SettlementItem, 0, len(items))
	for _, item := range items {
		if item.Type == t {
			out = append(out, item)
		}
	}
	return out
}

// ParseSettlementType accepts a type name or "ALL".
func ParseSettlementType(s string) (SettlementType, error) {
	switch t := SettlementType(s); t {
	case "", "ALL":
		return "", nil
	case SettleRentalFee, SettleShippingCost, SettleDeposit, SettleRepairCost,
		SettleCommission, SettleEarlyTermination:
		return t, nil
	}
	return "", &ValidationError{Field: "type", Value: s, Reason: "unknown settlement type"}
}
