package sheet

import "math"

// Share is the mean of one traffic-source column.
type Share struct {
	Source string
	Mean   float64
}

// Period is one (label, sales) pair in source row order.
type Period struct {
	Label string
	Value float64
}

type Aggregates struct {
	TrafficShare  []Share
	SalesByPeriod []Period
}

// Aggregate computes per-source means and the sales series. Repeated period
// labels are kept as separate entries.
func Aggregate(roles *ColumnRoles) *Aggregates {
	agg := &Aggregates{
		TrafficShare:  make([]Share, 0, len(roles.Traffic)),
		SalesByPeriod: make([]Period, 0, len(roles.Sales.Values)),
	}

	for _, s := range roles.Traffic {
		agg.TrafficShare = append(agg.TrafficShare, Share{Source: s.Name, Mean: mean(s.Values)})
	}

	for i, v := range roles.Sales.Values {
		agg.SalesByPeriod = append(agg.SalesByPeriod, Period{Label: roles.TimeAxis[i], Value: v})
	}

	return agg
}

// Fractions returns each share divided by the sum of all shares, in order.
// Means are scaled by the largest magnitude first so the sum cannot
// overflow. It returns nil when the total is not positive or not finite.
func (a *Aggregates) Fractions() []float64 {
	var scale float64
	for _, s := range a.TrafficShare {
		scale = math.Max(scale, math.Abs(s.Mean))
	}
	if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil
	}

	scaled := make([]float64, len(a.TrafficShare))
	var total float64
	for i, s := range a.TrafficShare {
		scaled[i] = s.Mean / scale
		total += scaled[i]
	}
	if total <= 0 || math.IsNaN(total) {
		return nil
	}
	for i := range scaled {
		scaled[i] /= total
	}
	return scaled
}

// mean is the running mean m += (x-m)/n, which stays finite for any
// column of finite values of one sign.
func mean(values []float64) float64 {
	var m float64
	for i, v := range values {
		m += (v - m) / float64(i+1)
	}
	return m
}
