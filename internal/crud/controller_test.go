package crud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/notify"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/session"
)

type call struct {
	Method  string
	Path    string
	Payload map[string]any
}

// fakeAPI records every call and serves canned collections and items.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []call
	lists    map[string][]map[string]any
	listErrs map[string]error
	items    map[string]map[string]any
	resp     map[string]any
	err      error
	onMutate func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		lists:    map[string][]map[string]any{},
		listErrs: map[string]error{},
		items:    map[string]map[string]any{},
	}
}

func (f *fakeAPI) record(method, path string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, _ := payload.(map[string]any)
	f.calls = append(f.calls, call{Method: method, Path: path, Payload: p})
}

func (f *fakeAPI) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) List(ctx context.Context, path string) ([]map[string]any, error) {
	f.record(http.MethodGet, path, nil)
	if err := f.listErrs[path]; err != nil {
		return nil, err
	}
	return f.lists[path], nil
}

func (f *fakeAPI) Get(ctx context.Context, path string) (map[string]any, error) {
	f.record(http.MethodGet, path, nil)
	item, ok := f.items[path]
	if !ok {
		return nil, &apiclient.APIError{Method: http.MethodGet, Path: path, Status: http.StatusNotFound, Message: "Not found"}
	}
	return item, nil
}

func (f *fakeAPI) mutate(method, path string, payload any) (map[string]any, error) {
	f.record(method, path, payload)
	if f.onMutate != nil {
		f.onMutate()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeAPI) Create(ctx context.Context, path string, payload any) (map[string]any, error) {
	return f.mutate(http.MethodPost, path, payload)
}

func (f *fakeAPI) Update(ctx context.Context, path string, payload any) (map[string]any, error) {
	return f.mutate(http.MethodPut, path, payload)
}

func (f *fakeAPI) Delete(ctx context.Context, path string) (map[string]any, error) {
	return f.mutate(http.MethodDelete, path, nil)
}

type fixture struct {
	api      *fakeAPI
	store    *session.MemoryStore
	metrics  *metrics.MetricsRegistry
	ctrl     *Controller
	registry *resources.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := newFakeAPI()
	store := session.NewMemoryStore(time.Minute)
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	reg := resources.NewRegistry()
	return &fixture{
		api:      api,
		store:    store,
		metrics:  m,
		registry: reg,
		ctrl:     NewController(api, reg, store, notify.NewService(3*time.Second, m), m),
	}
}

func formValues(form *Form) url.Values {
	v := url.Values{}
	for _, f := range form.Fields {
		v.Set(f.Key, f.Value)
	}
	return v
}

func TestSubmit_CreatePilot_BlankHoursBecomeZero(t *testing.T) {
	fx := newFixture(t)
	fx.api.resp = map[string]any{"message": "Pilot created", "id": 7}
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Pilots)
	require.NoError(t, err)
	assert.Equal(t, "Add Pilot", form.Title)

	out, err := fx.ctrl.Submit(ctx, form.Session, url.Values{
		"first_name":         {"Ana"},
		"last_name":          {"Ruiz"},
		"total_flight_hours": {""},
	})
	require.NoError(t, err)

	calls := fx.api.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/pilots", calls[0].Path)
	assert.Equal(t, float64(0), calls[0].Payload["total_flight_hours"])
	assert.Equal(t, "Ana", calls[0].Payload["first_name"])
	assert.Nil(t, calls[0].Payload["date_of_birth"])

	require.NotNil(t, out.Notification)
	assert.Equal(t, notify.KindSuccess, out.Notification.Kind)
	assert.Equal(t, "Pilot created", out.Notification.Message)
	assert.True(t, out.CloseModal)
	assert.Contains(t, out.Refresh, "refresh-pilots")
	assert.Contains(t, out.Refresh, notify.EventDashboard)

	_, err = fx.store.Current(ctx, "c1")
	assert.ErrorIs(t, err, session.ErrNoSession, "session is cleared after success")
}

func TestSubmit_FallbackMessage(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Airports)
	require.NoError(t, err)

	out, err := fx.ctrl.Submit(ctx, form.Session, url.Values{"iata_code": {"lhr"}, "city": {"London"}, "country": {"UK"}})
	require.NoError(t, err)
	assert.Equal(t, "Airport created successfully", out.Notification.Message)
	assert.Equal(t, "LHR", fx.api.mutations()[0].Payload["iata_code"])
}

func TestSubmit_ValidationStopsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		values   url.Values
		field    string
	}{
		{"negative hours", resources.Pilots, url.Values{"first_name": {"A"}, "last_name": {"B"}, "total_flight_hours": {"-1"}}, "total_flight_hours"},
		{"blank required name", resources.Pilots, url.Values{"first_name": {"   "}, "last_name": {"B"}}, "first_name"},
		{"non numeric hours", resources.Pilots, url.Values{"first_name": {"A"}, "last_name": {"B"}, "total_flight_hours": {"lots"}}, "total_flight_hours"},
		{"negative cost", resources.Maintenance, url.Values{"aircraft_id": {"1"}, "maintenance_type": {"A"}, "start_date_time": {"2024-01-01T10:00"}, "cost": {"-5"}}, "cost"},
		{"bad iata length", resources.Airports, url.Values{"iata_code": {"LHRX"}, "city": {"London"}, "country": {"UK"}}, "iata_code"},
		{"unknown status", resources.Flights, url.Values{
			"flight_number": {"AO1"}, "departure_airport_id": {"1"}, "arrival_airport_id": {"2"},
			"scheduled_departure_time": {"2024-01-01T10:00"}, "scheduled_arrival_time": {"2024-01-01T12:00"},
			"flight_status": {"Teleported"},
		}, "flight_status"},
		{"bad date", resources.Aircraft, url.Values{"tail_number": {"EC-A"}, "aircraft_model": {"A320"}, "next_maintenance_date": {"tomorrow"}}, "next_maintenance_date"},
		{"fractional seats", resources.Aircraft, url.Values{"tail_number": {"EC-A"}, "aircraft_model": {"A320"}, "seating_capacity": {"1.5"}}, "seating_capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			ctx := context.Background()

			form, err := fx.ctrl.OpenCreate(ctx, "c1", tt.resource)
			require.NoError(t, err)

			out, err := fx.ctrl.Submit(ctx, form.Session, tt.values)
			require.Error(t, err)
			assert.Nil(t, out)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Errors, tt.field)
			assert.Empty(t, fx.api.mutations(), "no request on validation failure")

			_, err = fx.store.Current(ctx, "c1")
			assert.NoError(t, err, "modal stays open")
		})
	}
}

func TestBuildPayload_BlankCostIsNull(t *testing.T) {
	d := resources.NewRegistry().MustGet(resources.Maintenance)
	payload, err := BuildPayload(d, url.Values{
		"aircraft_id":      {"4"},
		"maintenance_type": {"C-Check"},
		"start_date_time":  {"2024-03-01T08:00"},
		"cost":             {""},
		"hangar_id":        {""},
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, payload["cost"])
	assert.Nil(t, payload["hangar_id"])
	assert.Equal(t, int64(4), payload["aircraft_id"])
	assert.Equal(t, "2024-03-01T08:00:00", payload["start_date_time"])
	assert.Contains(t, payload, "cost", "blank optional fields are sent as null")
}

func TestValidationError_Message(t *testing.T) {
	d := resources.NewRegistry().MustGet(resources.Pilots)
	_, err := BuildPayload(d, url.Values{"total_flight_hours": {"-3"}}, nil)
	require.Error(t, err)
	assert.Equal(t, "First Name cannot be blank; Last Name cannot be blank; Total Flight Hours must be no less than 0", err.Error())
}

func TestSubmit_APIErrorKeepsSession(t *testing.T) {
	fx := newFixture(t)
	fx.api.err = &apiclient.APIError{Status: http.StatusConflict, Message: "Tail number already exists"}
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Aircraft)
	require.NoError(t, err)

	_, err = fx.ctrl.Submit(ctx, form.Session, url.Values{"tail_number": {"EC-ABC"}, "aircraft_model": {"A320"}})
	require.Error(t, err)
	assert.Equal(t, "Tail number already exists", apiclient.Message(err))

	cur, err := fx.store.Current(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, form.Session.Token, cur.Token)
}

func TestOpenEdit_PrefillsAndUpdates(t *testing.T) {
	fx := newFixture(t)
	fx.api.items["/flights/42"] = map[string]any{
		"flight_id":                int64(42),
		"flight_number":            "AO42",
		"departure_airport_id":     int64(1),
		"arrival_airport_id":       int64(2),
		"scheduled_departure_time": "Mon, 01 Jul 2024 09:30:00 GMT",
		"scheduled_arrival_time":   "2024-07-01 11:45:00",
		"aircraft_id":              nil,
		"flight_status":            "In Flight",
	}
	fx.api.lists["/airports"] = []map[string]any{
		{"airport_id": int64(1), "iata_code": "MAD", "city": "Madrid"},
		{"airport_id": int64(2), "iata_code": "LHR", "city": "London"},
	}
	fx.api.resp = map[string]any{"message": "Flight updated"}
	ctx := context.Background()

	form, err := fx.ctrl.OpenEdit(ctx, "c1", resources.Flights, 42)
	require.NoError(t, err)
	assert.Equal(t, "Edit Flight", form.Title)

	values := map[string]FormField{}
	for _, f := range form.Fields {
		values[f.Key] = f
	}
	assert.Equal(t, "2024-07-01T09:30:00", values["scheduled_departure_time"].Value)
	assert.Equal(t, "2024-07-01T11:45:00", values["scheduled_arrival_time"].Value)
	assert.Equal(t, "InFlight", values["flight_status"].Value)
	assert.Equal(t, "1", values["departure_airport_id"].Value)
	assert.True(t, values["departure_airport_id"].Selected(Option{Value: "1", Label: "MAD - Madrid"}))
	assert.Contains(t, values["departure_airport_id"].Choices, Option{Value: "1", Label: "MAD - Madrid"})

	cur, err := fx.store.Current(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "AO42", cur.Prefetched["flight_number"])

	out, err := fx.ctrl.Submit(ctx, form.Session, formValues(form))
	require.NoError(t, err)
	assert.Equal(t, "Flight updated", out.Notification.Message)

	calls := fx.api.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/flights/42", calls[0].Path)
}

func TestOpenEdit_NotFound(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.ctrl.OpenEdit(ctx, "c1", resources.Pilots, 99)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiclient.Status(err))

	_, err = fx.store.Current(ctx, "c1")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestOpenCreate_FlightFormFailsAsAWhole(t *testing.T) {
	fx := newFixture(t)
	fx.api.listErrs["/pilots"] = &apiclient.APIError{Status: http.StatusInternalServerError, Message: "database down"}
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Flights)
	require.Error(t, err)
	assert.Nil(t, form)
	assert.Equal(t, "database down", apiclient.Message(err))

	_, err = fx.store.Current(ctx, "c1")
	assert.ErrorIs(t, err, session.ErrNoSession, "no modal is left half open")
}

func TestOpenCreate_LoadsEachSourceOnce(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.ctrl.OpenCreate(context.Background(), "c1", resources.Flights)
	require.NoError(t, err)

	counts := map[string]int{}
	for _, c := range fx.api.calls {
		counts[c.Path]++
	}
	assert.Equal(t, map[string]int{"/airports": 1, "/aircraft": 1, "/pilots": 1}, counts)
}

func TestOpenCreate_UnknownResource(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.ctrl.OpenCreate(context.Background(), "c1", "passengers")
	assert.ErrorIs(t, err, resources.ErrUnknownResource)
}

func TestDelete_DeclinedSendsNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	confirm, err := fx.ctrl.ConfirmDelete(ctx, "c1", resources.Flights, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), confirm.ID)
	assert.Contains(t, confirm.Prompt, "Flight #42")

	out, err := fx.ctrl.Delete(ctx, confirm.Session, false)
	require.NoError(t, err)
	assert.True(t, out.CloseModal)
	assert.Nil(t, out.Notification)
	assert.Empty(t, fx.api.calls, "declined delete issues no request")

	_, err = fx.store.Current(ctx, "c1")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestDelete_Confirmed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	confirm, err := fx.ctrl.ConfirmDelete(ctx, "c1", resources.Flights, 42)
	require.NoError(t, err)

	out, err := fx.ctrl.Delete(ctx, confirm.Session, true)
	require.NoError(t, err)

	calls := fx.api.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, call{Method: http.MethodDelete, Path: "/flights/42"}, calls[0])
	assert.Equal(t, "Flight deleted successfully", out.Notification.Message)
	assert.Equal(t, []string{"refresh-flights", notify.EventDashboard, notify.EventReports}, out.Refresh)
}

func TestDelete_Failure(t *testing.T) {
	fx := newFixture(t)
	fx.api.err = &apiclient.APIError{Status: http.StatusConflict, Message: "Aircraft is assigned to flights"}
	ctx := context.Background()

	confirm, err := fx.ctrl.ConfirmDelete(ctx, "c1", resources.Aircraft, 3)
	require.NoError(t, err)

	_, err = fx.ctrl.Delete(ctx, confirm.Session, true)
	require.Error(t, err)
	assert.Equal(t, "Aircraft is assigned to flights", apiclient.Message(err))
}

func TestSubmit_SupersededBeforeStart(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Airports)
	require.NoError(t, err)
	_, err = fx.ctrl.ConfirmDelete(ctx, "c1", resources.Pilots, 1)
	require.NoError(t, err)

	_, err = fx.ctrl.Submit(ctx, first.Session, url.Values{"iata_code": {"MAD"}, "city": {"Madrid"}, "country": {"ES"}})
	assert.ErrorIs(t, err, session.ErrStale)
	assert.Empty(t, fx.api.mutations())

	_, err = fx.ctrl.Resolve(ctx, "c1", first.Session.Token)
	assert.ErrorIs(t, err, session.ErrStale)
}

func TestSubmit_SupersededWhileInFlight(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Airports)
	require.NoError(t, err)

	var second *Confirmation
	fx.api.onMutate = func() {
		second, err = fx.ctrl.ConfirmDelete(ctx, "c1", resources.Airports, 5)
		require.NoError(t, err)
	}

	out, err := fx.ctrl.Submit(ctx, form.Session, url.Values{"iata_code": {"MAD"}, "city": {"Madrid"}, "country": {"ES"}})
	require.NoError(t, err)
	assert.True(t, out.Stale)
	assert.True(t, out.Trigger().Empty(), "stale results raise no UI effects")

	cur, err := fx.store.Current(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, second.Session.Token, cur.Token, "newer session is untouched")

	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StaleResultsDiscarded.WithLabelValues("airports", "create")))
}

func TestSubmit_FailureAfterSupersededIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	fx.api.err = &apiclient.APIError{Status: http.StatusConflict, Message: "IATA code already exists"}
	ctx := context.Background()

	form, err := fx.ctrl.OpenCreate(ctx, "c1", resources.Airports)
	require.NoError(t, err)

	var second *Confirmation
	fx.api.onMutate = func() {
		second, err = fx.ctrl.ConfirmDelete(ctx, "c1", resources.Airports, 5)
		require.NoError(t, err)
	}

	out, err := fx.ctrl.Submit(ctx, form.Session, url.Values{"iata_code": {"MAD"}, "city": {"Madrid"}, "country": {"ES"}})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Stale)
	assert.True(t, out.Trigger().Empty())

	cur, err := fx.store.Current(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, second.Session.Token, cur.Token)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StaleResultsDiscarded.WithLabelValues("airports", "create")))
}

func TestDelete_FailureAfterSupersededIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	fx.api.err = &apiclient.APIError{Status: http.StatusConflict, Message: "Aircraft is assigned to flights"}
	fx.api.items["/pilots/7"] = map[string]any{"pilot_id": int64(7), "first_name": "Ana", "last_name": "Ruiz"}
	ctx := context.Background()

	confirm, err := fx.ctrl.ConfirmDelete(ctx, "c1", resources.Aircraft, 3)
	require.NoError(t, err)

	var edit *Form
	fx.api.onMutate = func() {
		edit, err = fx.ctrl.OpenEdit(ctx, "c1", resources.Pilots, 7)
		require.NoError(t, err)
	}

	out, err := fx.ctrl.Delete(ctx, confirm.Session, true)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Stale)
	assert.True(t, out.Trigger().Empty(), "no toast and no closeModal for the newer modal")

	cur, err := fx.store.Current(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, edit.Session.Token, cur.Token)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.StaleResultsDiscarded.WithLabelValues("aircraft", "delete")))
}

func TestReopen(t *testing.T) {
	fx := newFixture(t)
	fx.api.items["/pilots/5"] = map[string]any{"pilot_id": int64(5), "first_name": "Ana", "last_name": "Ruiz"}
	ctx := context.Background()

	_, err := fx.ctrl.OpenEdit(ctx, "c1", resources.Pilots, 5)
	require.NoError(t, err)
	delete(fx.api.items, "/pilots/5")

	modal, err := fx.ctrl.Reopen(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, modal.Form)
	assert.Equal(t, "Ana", modal.Form.Fields[0].Value, "prefetched record is reused")

	_, err = fx.ctrl.ConfirmDelete(ctx, "c1", resources.Pilots, 5)
	require.NoError(t, err)
	modal, err = fx.ctrl.Reopen(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, modal.Confirm)

	require.NoError(t, fx.ctrl.Close(ctx, "c1"))
	_, err = fx.ctrl.Reopen(ctx, "c1")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestList_MaintenanceJoin(t *testing.T) {
	fx := newFixture(t)
	fx.api.lists["/maintenance"] = []map[string]any{
		{"maintenance_event_id": int64(1), "aircraft_id": int64(9), "maintenance_status": "InProgress", "cost": nil},
	}
	fx.api.lists["/aircraft"] = []map[string]any{
		{"aircraft_id": int64(3), "tail_number": "EC-ABC"},
	}

	view, err := fx.ctrl.List(context.Background(), resources.Maintenance)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)

	row := view.Rows[0]
	assert.Equal(t, int64(1), row.ID)
	cells := map[string]Cell{}
	for i, col := range view.Columns {
		cells[col.Key] = row.Cells[i]
	}
	assert.Equal(t, "N/A", cells["aircraft_tail"].Text)
	assert.Contains(t, string(cells["maintenance_status"].Badge), "status-in-progress")
	assert.Equal(t, "In progress", cells["end_date_time"].Text)
	assert.Equal(t, "N/A", cells["cost"].Text)
}

func TestList_FailureReturnsError(t *testing.T) {
	fx := newFixture(t)
	fx.api.listErrs["/pilots"] = &apiclient.NetworkError{Method: http.MethodGet, Path: "/pilots", Err: fmt.Errorf("connection refused")}

	view, err := fx.ctrl.List(context.Background(), resources.Pilots)
	require.Error(t, err)
	assert.Nil(t, view)
}
