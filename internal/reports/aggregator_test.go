package reports

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/resources"
)

// fakeAPI serves fixed JSON bodies per collection path.
func fakeAPI(t *testing.T, bodies map[string]string) *apiclient.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			body = "[]"
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "database down"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return apiclient.NewClient(server.URL, 2*time.Second, nil)
}

func newAggregator(client *apiclient.Client) *Aggregator {
	return NewAggregator(client, resources.NewRegistry(), metrics.NewMetricsRegistry(prometheus.NewRegistry()))
}

func TestRefreshDashboard(t *testing.T) {
	client := fakeAPI(t, map[string]string{
		"/pilots":       `[{"pilot_id":1,"employment_status":"Active"},{"pilot_id":2,"employment_status":"OnLeave"},{"pilot_id":3,"employment_status":"On Leave"}]`,
		"/crew-members": `[{"crew_member_id":1,"employment_status":"Active"}]`,
		"/flights": `[
			{"flight_id":1,"flight_number":"AO7","flight_status":"Scheduled","scheduled_departure_time":"2024-06-07 10:00:00","departure_airport":"MAD","arrival_airport":"LHR"},
			{"flight_id":2,"flight_number":"AO1","flight_status":"Scheduled","scheduled_departure_time":"2024-06-01 10:00:00"},
			{"flight_id":3,"flight_number":"AO3","flight_status":"Landed","scheduled_departure_time":"2024-05-01 10:00:00"},
			{"flight_id":4,"flight_number":"AO5","flight_status":"Scheduled","scheduled_departure_time":"2024-06-05 10:00:00"},
			{"flight_id":5,"flight_number":"AO2","flight_status":"Scheduled","scheduled_departure_time":"2024-06-02 10:00:00"},
			{"flight_id":6,"flight_number":"AO6","flight_status":"Scheduled","scheduled_departure_time":"2024-06-06 10:00:00"},
			{"flight_id":7,"flight_number":"AO4","flight_status":"Scheduled","scheduled_departure_time":"2024-06-04 10:00:00"}
		]`,
		"/aircraft": `[{"aircraft_id":3,"tail_number":"EC-ABC","status":"Operational"},{"aircraft_id":4,"tail_number":"EC-DEF","status":"In Maintenance"}]`,
		"/airports": `[{"airport_id":1},{"airport_id":2}]`,
		"/maintenance": `[
			{"maintenance_event_id":1,"aircraft_id":9,"maintenance_status":"InProgress","maintenance_type":"A-Check","start_date_time":"2024-06-01T08:00:00"},
			{"maintenance_event_id":2,"aircraft_id":3,"maintenance_status":"In Progress","maintenance_type":"C-Check","start_date_time":"2024-06-03T08:00:00"},
			{"maintenance_event_id":3,"aircraft_id":4,"maintenance_status":"Completed","maintenance_type":"Line","start_date_time":"2024-05-01T08:00:00"}
		]`,
	})

	d, err := newAggregator(client).RefreshDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, d.ActivePilots)
	assert.Equal(t, 1, d.ActiveCrew)
	assert.Equal(t, 6, d.ScheduledFlights)
	assert.Equal(t, 1, d.OperationalAircraft)
	assert.Equal(t, 2, d.Airports)
	assert.Equal(t, 2, d.MaintenanceInProgress, "both spellings count as in progress")

	require.Len(t, d.UpcomingFlights, TopN)
	var numbers []string
	for _, f := range d.UpcomingFlights {
		numbers = append(numbers, f.Number)
	}
	assert.Equal(t, []string{"AO1", "AO2", "AO4", "AO5", "AO6"}, numbers)
	assert.Equal(t, "N/A", d.UpcomingFlights[0].From)

	require.Len(t, d.RecentMaintenance, 3)
	assert.Equal(t, "EC-ABC", d.RecentMaintenance[0].Tail)
	assert.Equal(t, "N/A", d.RecentMaintenance[1].Tail, "dangling aircraft reference")
	assert.Equal(t, "status-in-progress", d.RecentMaintenance[1].StatusClass)
	assert.Equal(t, "EC-DEF", d.RecentMaintenance[2].Tail)
}

func TestRefreshDashboard_Empty(t *testing.T) {
	d, err := newAggregator(fakeAPI(t, map[string]string{"/flights": `{"not":"a list"}`})).RefreshDashboard(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, d.UpcomingFlights)
	assert.Empty(t, d.UpcomingFlights)
	assert.Empty(t, d.RecentMaintenance)
	assert.Zero(t, d.ScheduledFlights)
}

func TestRefreshDashboard_AnyFailureAborts(t *testing.T) {
	d, err := newAggregator(fakeAPI(t, map[string]string{"/airports": "500"})).RefreshDashboard(context.Background())
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Equal(t, "database down", apiclient.Message(err))
}

func TestRefreshReports(t *testing.T) {
	client := fakeAPI(t, map[string]string{
		"/pilots": `[
			{"pilot_id":1,"employment_status":"Active","current_rank":"Captain","total_flight_hours":1200.5},
			{"pilot_id":2,"employment_status":"Active","current_rank":"First Officer","total_flight_hours":"abc"},
			{"pilot_id":3,"employment_status":"Retired","current_rank":"Captain"}
		]`,
		"/flights": `[{"flight_id":1,"flight_status":"Scheduled"},{"flight_id":2,"flight_status":"In Flight"},{"flight_id":3,"flight_status":"Diverted"},{"flight_id":4}]`,
		"/maintenance": `[
			{"maintenance_event_id":1,"maintenance_status":"InProgress","cost":100.25},
			{"maintenance_event_id":2,"maintenance_status":"In Progress","cost":null},
			{"maintenance_event_id":3,"maintenance_status":"Completed","cost":"49.75"}
		]`,
		"/aircraft": `[{"aircraft_id":1,"status":"Operational"},{"aircraft_id":2,"status":"Out of Service"}]`,
	})

	r, err := newAggregator(client).RefreshReports(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PilotTotals{Count: 3, Active: 2, Captains: 2, Hours: 1200.5}, r.Pilots)
	assert.Equal(t, MaintenanceTotals{Count: 3, InProgress: 2, Completed: 1, Cost: 150}, r.Maintenance)

	byLabel := func(bs []Breakdown) map[string]int {
		m := map[string]int{}
		for _, b := range bs {
			m[b.Label] = b.Count
		}
		return m
	}
	flights := byLabel(r.FlightStatus)
	assert.Equal(t, 1, flights["Scheduled"])
	assert.Equal(t, 1, flights["In Flight"])
	assert.Equal(t, 1, flights["Diverted"])
	assert.Equal(t, 1, flights["Unknown"])
	assert.Equal(t, 0, flights["Cancelled"], "declared statuses are listed with zero counts")

	fleet := byLabel(r.Fleet)
	assert.Equal(t, 1, fleet["Operational"])
	assert.Equal(t, 1, fleet["Out of Service"])
}

func TestUpcomingScheduled_Properties(t *testing.T) {
	flights := resources.NewRegistry().MustGet(resources.Flights)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		records := make([]resources.Record, 0, n)
		for i := 0; i < n; i++ {
			offset := rapid.IntRange(0, 10000).Draw(t, fmt.Sprintf("offset%d", i))
			status := rapid.SampledFrom([]string{"Scheduled", "Landed", "Delayed"}).Draw(t, fmt.Sprintf("status%d", i))
			records = append(records, resources.Record{
				"flight_status":            status,
				"scheduled_departure_time": base.Add(time.Duration(offset) * time.Minute).Format("2006-01-02T15:04:05"),
			})
		}

		top := UpcomingScheduled(flights, records, TopN)
		if len(top) > TopN {
			t.Fatalf("got %d entries", len(top))
		}
		for i := 1; i < len(top); i++ {
			prev, _ := timeOf(top[i-1]["scheduled_departure_time"])
			cur, _ := timeOf(top[i]["scheduled_departure_time"])
			if cur.Before(prev) {
				t.Fatalf("not ascending at %d", i)
			}
		}
		for _, rec := range top {
			if rec["flight_status"] != "Scheduled" {
				t.Fatalf("non-scheduled flight in upcoming list")
			}
		}
	})
}

func TestMostRecent_DoesNotMutateInput(t *testing.T) {
	in := []resources.Record{{"start_date_time": "2024-01-01T00:00:00"}}
	out := MostRecent(in, TopN)
	out[0]["aircraft_tail"] = "X"
	assert.NotContains(t, in[0], "aircraft_tail")
}
