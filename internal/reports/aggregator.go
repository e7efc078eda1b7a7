// Package reports derives the dashboard statistics and summary reports from
// the airline API's collections.
package reports

import (
	"context"
	"sort"
	"time"

	"airline-ops/airops/internal/format"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/resources"
)

// TopN is the length of the dashboard's upcoming and recent lists.
const TopN = 5

// Dashboard is the dashboard view model.
type Dashboard struct {
	ActivePilots          int
	ActiveCrew            int
	ScheduledFlights      int
	OperationalAircraft   int
	Airports              int
	MaintenanceInProgress int

	UpcomingFlights   []UpcomingFlight
	RecentMaintenance []MaintenanceEntry
}

// UpcomingFlight is one row of the upcoming flights list.
type UpcomingFlight struct {
	Number    string
	From      string
	To        string
	Departure string
}

// MaintenanceEntry is one row of the recent maintenance list.
type MaintenanceEntry struct {
	Tail        string
	Type        string
	Status      string
	StatusClass string
	Start       string
}

// Reports is the reports view model.
type Reports struct {
	FlightStatus []Breakdown
	Pilots       PilotTotals
	Maintenance  MaintenanceTotals
	Fleet        []Breakdown
}

// Breakdown counts records sharing one status.
type Breakdown struct {
	Label string
	Class string
	Count int
}

type PilotTotals struct {
	Count    int
	Active   int
	Captains int
	Hours    float64
}

type MaintenanceTotals struct {
	Count      int
	InProgress int
	Completed  int
	Cost       float64
}

// Aggregator computes dashboard and report figures.
type Aggregator struct {
	lister   resources.Lister
	registry *resources.Registry
	metrics  *metrics.MetricsRegistry
}

// NewAggregator creates an aggregator. m may be nil.
func NewAggregator(lister resources.Lister, registry *resources.Registry, m *metrics.MetricsRegistry) *Aggregator {
	return &Aggregator{lister: lister, registry: registry, metrics: m}
}

func (a *Aggregator) fetch(ctx context.Context, aggregate string, types ...string) (resources.Collections, error) {
	start := time.Now()
	defs := make([]*resources.Definition, 0, len(types))
	for _, t := range types {
		defs = append(defs, a.registry.MustGet(t))
	}

	cols, err := resources.FetchAll(ctx, a.lister, defs...)
	if a.metrics != nil {
		a.metrics.AggregateDuration.WithLabelValues(aggregate).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		logging.Warn("Aggregate refresh failed", "aggregate", aggregate, "error", err)
		return nil, err
	}
	return cols, nil
}

// RefreshDashboard fetches six collections concurrently and derives the
// dashboard. Any fetch failure aborts the whole refresh.
func (a *Aggregator) RefreshDashboard(ctx context.Context) (*Dashboard, error) {
	cols, err := a.fetch(ctx, "dashboard",
		resources.Pilots, resources.Crew, resources.Flights,
		resources.Aircraft, resources.Airports, resources.Maintenance,
	)
	if err != nil {
		return nil, err
	}

	pilots := a.registry.MustGet(resources.Pilots)
	crew := a.registry.MustGet(resources.Crew)
	flights := a.registry.MustGet(resources.Flights)
	aircraft := a.registry.MustGet(resources.Aircraft)
	maint := a.registry.MustGet(resources.Maintenance)

	d := &Dashboard{
		ActivePilots:          countStatus(pilots, cols[resources.Pilots], "Active"),
		ActiveCrew:            countStatus(crew, cols[resources.Crew], "Active"),
		ScheduledFlights:      countStatus(flights, cols[resources.Flights], "Scheduled"),
		OperationalAircraft:   countStatus(aircraft, cols[resources.Aircraft], "Operational"),
		Airports:              len(cols[resources.Airports]),
		MaintenanceInProgress: countStatus(maint, cols[resources.Maintenance], "InProgress"),
		UpcomingFlights:       []UpcomingFlight{},
		RecentMaintenance:     []MaintenanceEntry{},
	}

	for _, f := range UpcomingScheduled(flights, cols[resources.Flights], TopN) {
		d.UpcomingFlights = append(d.UpcomingFlights, UpcomingFlight{
			Number:    format.OrPlaceholder(f["flight_number"]),
			From:      format.OrPlaceholder(f["departure_airport"]),
			To:        format.OrPlaceholder(f["arrival_airport"]),
			Departure: format.DateTime(f["scheduled_departure_time"]),
		})
	}

	recent := MostRecent(cols[resources.Maintenance], TopN)
	a.registry.ApplyJoins(maint, recent, cols)
	for _, e := range recent {
		d.RecentMaintenance = append(d.RecentMaintenance, MaintenanceEntry{
			Tail:        format.OrPlaceholder(e["aircraft_tail"]),
			Type:        format.OrPlaceholder(e["maintenance_type"]),
			Status:      maint.StatusLabel(e["maintenance_status"]),
			StatusClass: maint.StatusClass(e["maintenance_status"]),
			Start:       format.DateTime(e["start_date_time"]),
		})
	}

	return d, nil
}

// RefreshReports fetches four collections concurrently and derives the
// summary reports. Sums treat missing values as zero.
func (a *Aggregator) RefreshReports(ctx context.Context) (*Reports, error) {
	cols, err := a.fetch(ctx, "reports",
		resources.Pilots, resources.Flights, resources.Maintenance, resources.Aircraft,
	)
	if err != nil {
		return nil, err
	}

	pilots := a.registry.MustGet(resources.Pilots)
	flights := a.registry.MustGet(resources.Flights)
	maint := a.registry.MustGet(resources.Maintenance)
	aircraft := a.registry.MustGet(resources.Aircraft)

	r := &Reports{
		FlightStatus: StatusBreakdown(flights, cols[resources.Flights]),
		Fleet:        StatusBreakdown(aircraft, cols[resources.Aircraft]),
	}

	for _, p := range cols[resources.Pilots] {
		r.Pilots.Count++
		if pilots.HasStatus(p["employment_status"], "Active") {
			r.Pilots.Active++
		}
		if format.Text(p["current_rank"]) == "Captain" {
			r.Pilots.Captains++
		}
		r.Pilots.Hours += number(p["total_flight_hours"])
	}

	for _, m := range cols[resources.Maintenance] {
		r.Maintenance.Count++
		switch {
		case maint.HasStatus(m["maintenance_status"], "InProgress"):
			r.Maintenance.InProgress++
		case maint.HasStatus(m["maintenance_status"], "Completed"):
			r.Maintenance.Completed++
		}
		r.Maintenance.Cost += number(m["cost"])
	}

	return r, nil
}

func countStatus(d *resources.Definition, records []resources.Record, status string) int {
	n := 0
	for _, rec := range records {
		if d.HasStatus(rec[d.StatusField], status) {
			n++
		}
	}
	return n
}

// number is a NaN-free read of a numeric field; missing values count as 0.
func number(v any) float64 {
	f, ok := format.Float(v)
	if !ok {
		return 0
	}
	return f
}

func timeOf(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	return format.ParseTime(s)
}

// UpcomingScheduled returns up to n scheduled flights ordered by ascending
// departure time. Flights without a parseable departure sort last.
func UpcomingScheduled(flights *resources.Definition, records []resources.Record, n int) []resources.Record {
	var scheduled []resources.Record
	for _, rec := range records {
		if flights.HasStatus(rec[flights.StatusField], "Scheduled") {
			scheduled = append(scheduled, rec)
		}
	}

	sort.SliceStable(scheduled, func(i, j int) bool {
		ti, okI := timeOf(scheduled[i]["scheduled_departure_time"])
		tj, okJ := timeOf(scheduled[j]["scheduled_departure_time"])
		if okI != okJ {
			return okI
		}
		return ti.Before(tj)
	})

	if len(scheduled) > n {
		scheduled = scheduled[:n]
	}
	return scheduled
}

// MostRecent returns up to n maintenance events ordered by descending start
// time. Events without a parseable start sort last. The returned records are
// copies so joins do not mutate the input.
func MostRecent(records []resources.Record, n int) []resources.Record {
	sorted := make([]resources.Record, 0, len(records))
	for _, rec := range records {
		cp := make(resources.Record, len(rec)+1)
		for k, v := range rec {
			cp[k] = v
		}
		sorted = append(sorted, cp)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := timeOf(sorted[i]["start_date_time"])
		tj, okJ := timeOf(sorted[j]["start_date_time"])
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// StatusBreakdown counts records per status. Declared statuses come first in
// declaration order, including zero counts; unknown values follow sorted.
func StatusBreakdown(d *resources.Definition, records []resources.Record) []Breakdown {
	counts := make(map[string]int)
	for _, rec := range records {
		v := format.Text(rec[d.StatusField])
		if c, ok := d.CanonicalStatus(v); ok {
			v = c
		}
		counts[v]++
	}

	out := make([]Breakdown, 0, len(d.Statuses)+len(counts))
	for _, st := range d.Statuses {
		out = append(out, Breakdown{Label: st.Label, Class: st.Class, Count: counts[st.Value]})
		delete(counts, st.Value)
	}

	unknown := make([]string, 0, len(counts))
	for v := range counts {
		unknown = append(unknown, v)
	}
	sort.Strings(unknown)
	for _, v := range unknown {
		label := v
		if label == "" {
			label = "Unknown"
		}
		out = append(out, Breakdown{Label: label, Class: resources.UnknownStatusClass, Count: counts[v]})
	}
	return out
}
