package resources

import (
	"errors"
	"fmt"
	"strings"

	"airline-ops/airops/internal/format"
)

// Resource type names. They double as view names and URL segments.
const (
	Pilots      = "pilots"
	Crew        = "crew"
	Flights     = "flights"
	Aircraft    = "aircraft"
	Airports    = "airports"
	Maintenance = "maintenance"
	Hangars     = "hangars"
)

// ErrUnknownResource is returned for resource types that are not registered.
var ErrUnknownResource = errors.New("unknown resource type")

// Registry holds the immutable resource definitions.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry builds the registry of every resource the console manages.
func NewRegistry() *Registry {
	defs := []*Definition{
		pilotDefinition(),
		crewDefinition(),
		flightDefinition(),
		aircraftDefinition(),
		airportDefinition(),
		maintenanceDefinition(),
		hangarDefinition(),
	}

	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		d.init()
		r.defs[d.Type] = d
		r.order = append(r.order, d.Type)
	}
	return r
}

// Get returns the definition for a resource type.
func (r *Registry) Get(resourceType string) (*Definition, error) {
	d, ok := r.defs[resourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resourceType)
	}
	return d, nil
}

// MustGet is Get for types known at compile time.
func (r *Registry) MustGet(resourceType string) *Definition {
	d, err := r.Get(resourceType)
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every definition in navigation order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func opts(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: v})
	}
	return out
}

var employmentStatuses = []Status{
	{Value: "Active"},
	{Value: "Inactive"},
	{Value: "OnLeave", Label: "On Leave", Aliases: []string{"On Leave"}},
	{Value: "Suspended"},
	{Value: "Retired"},
}

var genders = opts("Male", "Female", "Other")

func personName(rec Record) string {
	return strings.TrimSpace(format.Text(rec["first_name"]) + " " + format.Text(rec["last_name"]))
}

func pilotDefinition() *Definition {
	return &Definition{
		Type:     Pilots,
		Singular: "Pilot",
		Plural:   "Pilots",
		Endpoint: "/pilots",
		IDField:  "pilot_id",
		Icon:     "fa-user-tie",
		Columns: []Column{
			{Key: "pilot_id", Label: "ID"},
			{Key: "first_name", Label: "First Name"},
			{Key: "last_name", Label: "Last Name"},
			{Key: "license_number", Label: "License"},
			{Key: "license_type", Label: "Type"},
			{Key: "total_flight_hours", Label: "Flight Hours", Format: FormatHours},
			{Key: "current_rank", Label: "Rank"},
			{Key: "employment_status", Label: "Status", Format: FormatStatus},
		},
		Fields: []Field{
			{Key: "first_name", Label: "First Name", Input: InputText, Required: true},
			{Key: "last_name", Label: "Last Name", Input: InputText, Required: true},
			{Key: "date_of_birth", Label: "Date of Birth", Input: InputDate, Kind: KindDate},
			{Key: "gender", Label: "Gender", Input: InputSelect, Options: genders},
			{Key: "license_number", Label: "License Number", Input: InputText},
			{Key: "license_type", Label: "License Type", Input: InputSelect, Options: opts("ATPL", "CPL", "PPL")},
			{Key: "license_expiry_date", Label: "License Expiry", Input: InputDate, Kind: KindDate},
			{Key: "medical_certificate_class", Label: "Medical Class", Input: InputText, Default: "A1"},
			{Key: "medical_certificate_expiry", Label: "Medical Expiry", Input: InputDate, Kind: KindDate},
			{Key: "total_flight_hours", Label: "Total Flight Hours", Input: InputNumber, Kind: KindFloat, NonNegative: true, BlankZero: true},
			{Key: "current_rank", Label: "Rank", Input: InputSelect, Options: opts("Captain", "First Officer", "Second Officer", "Trainee")},
			{Key: "employment_status", Label: "Employment Status", Input: InputSelect, Default: "Active"},
		},
		StatusField: "employment_status",
		Statuses:    employmentStatuses,
		OptionLabel: personName,
	}
}

func crewDefinition() *Definition {
	return &Definition{
		Type:     Crew,
		Singular: "Crew Member",
		Plural:   "Crew Members",
		Endpoint: "/crew-members",
		IDField:  "crew_member_id",
		Icon:     "fa-users",
		Columns: []Column{
			{Key: "crew_member_id", Label: "ID"},
			{Key: "first_name", Label: "First Name"},
			{Key: "last_name", Label: "Last Name"},
			{Key: "license_number", Label: "License"},
			{Key: "current_role", Label: "Role"},
			{Key: "employment_status", Label: "Status", Format: FormatStatus},
		},
		Fields: []Field{
			{Key: "first_name", Label: "First Name", Input: InputText, Required: true},
			{Key: "last_name", Label: "Last Name", Input: InputText, Required: true},
			{Key: "date_of_birth", Label: "Date of Birth", Input: InputDate, Kind: KindDate},
			{Key: "gender", Label: "Gender", Input: InputSelect, Options: genders},
			{Key: "license_number", Label: "License Number", Input: InputText},
			{Key: "license_expiry_date", Label: "License Expiry", Input: InputDate, Kind: KindDate},
			{Key: "medical_certificate_class", Label: "Medical Class", Input: InputText, Default: "A2"},
			{Key: "medical_certificate_expiry", Label: "Medical Expiry", Input: InputDate, Kind: KindDate},
			{Key: "current_role", Label: "Role", Input: InputSelect, Options: opts("Flight Assistant", "Flight Attendant", "Head Cabin Manager")},
			{Key: "employment_status", Label: "Employment Status", Input: InputSelect, Default: "Active"},
		},
		StatusField: "employment_status",
		Statuses:    employmentStatuses,
		OptionLabel: personName,
	}
}

func flightDefinition() *Definition {
	return &Definition{
		Type:     Flights,
		Singular: "Flight",
		Plural:   "Flights",
		Endpoint: "/flights",
		IDField:  "flight_id",
		Icon:     "fa-plane-departure",
		Columns: []Column{
			{Key: "flight_number", Label: "Flight", Format: FormatStrong},
			{Key: "departure_airport", Label: "From"},
			{Key: "arrival_airport", Label: "To"},
			{Key: "scheduled_departure_time", Label: "Departure", Format: FormatDateTime},
			{Key: "scheduled_arrival_time", Label: "Arrival", Format: FormatDateTime},
			{Key: "aircraft", Label: "Aircraft"},
			{Key: "flight_status", Label: "Status", Format: FormatStatus},
		},
		Fields: []Field{
			{Key: "flight_number", Label: "Flight Number", Input: InputText, Required: true, Uppercase: true},
			{Key: "departure_airport_id", Label: "Departure Airport", Input: InputSelect, Kind: KindRef, Required: true, Source: Airports},
			{Key: "arrival_airport_id", Label: "Arrival Airport", Input: InputSelect, Kind: KindRef, Required: true, Source: Airports},
			{Key: "scheduled_departure_time", Label: "Scheduled Departure", Input: InputDateTime, Kind: KindDateTime, Required: true},
			{Key: "scheduled_arrival_time", Label: "Scheduled Arrival", Input: InputDateTime, Kind: KindDateTime, Required: true},
			{Key: "aircraft_id", Label: "Aircraft", Input: InputSelect, Kind: KindRef, Source: Aircraft},
			{Key: "pilot_command_id", Label: "Captain", Input: InputSelect, Kind: KindRef, Source: Pilots},
			{Key: "pilot_first_officer_id", Label: "First Officer", Input: InputSelect, Kind: KindRef, Source: Pilots},
			{Key: "flight_status", Label: "Status", Input: InputSelect, Default: "Scheduled"},
		},
		Extra:       []string{"departure_airport", "arrival_airport", "aircraft"},
		StatusField: "flight_status",
		Statuses: []Status{
			{Value: "Scheduled"},
			{Value: "Boarding"},
			{Value: "Departed"},
			{Value: "InFlight", Label: "In Flight", Aliases: []string{"In Flight", "Airborne"}},
			{Value: "Landed"},
			{Value: "Delayed"},
			{Value: "Cancelled", Aliases: []string{"Canceled"}},
		},
		OptionLabel: func(rec Record) string { return format.Text(rec["flight_number"]) },
	}
}

func aircraftDefinition() *Definition {
	return &Definition{
		Type:     Aircraft,
		Singular: "Aircraft",
		Plural:   "Aircraft",
		Endpoint: "/aircraft",
		IDField:  "aircraft_id",
		Icon:     "fa-plane",
		Columns: []Column{
			{Key: "tail_number", Label: "Tail Number", Format: FormatStrong},
			{Key: "aircraft_model", Label: "Model"},
			{Key: "manufacturer", Label: "Manufacturer"},
			{Key: "year_of_manufacture", Label: "Year"},
			{Key: "seating_capacity", Label: "Seats", Format: FormatSeats},
			{Key: "status", Label: "Status", Format: FormatStatus},
			{Key: "next_maintenance_date", Label: "Next Maintenance", Format: FormatDate},
		},
		Fields: []Field{
			{Key: "tail_number", Label: "Tail Number", Input: InputText, Required: true, Uppercase: true},
			{Key: "aircraft_model", Label: "Model", Input: InputText, Required: true},
			{Key: "manufacturer", Label: "Manufacturer", Input: InputText},
			{Key: "year_of_manufacture", Label: "Year of Manufacture", Input: InputNumber, Kind: KindInt, Min: ptr(1900), Max: ptr(2100)},
			{Key: "seating_capacity", Label: "Seating Capacity", Input: InputNumber, Kind: KindInt, NonNegative: true},
			{Key: "cargo_capacity", Label: "Cargo Capacity (kg)", Input: InputNumber, Kind: KindFloat, NonNegative: true},
			{Key: "status", Label: "Status", Input: InputSelect, Default: "Operational"},
			{Key: "last_maintenance_date", Label: "Last Maintenance", Input: InputDate, Kind: KindDate},
			{Key: "next_maintenance_date", Label: "Next Maintenance", Input: InputDate, Kind: KindDate},
			{Key: "assigned_base_airport_id", Label: "Base Airport", Input: InputSelect, Kind: KindRef, Source: Airports},
		},
		StatusField: "status",
		Statuses: []Status{
			{Value: "Operational", Aliases: []string{"Active", "In Service"}},
			{Value: "Maintenance", Label: "In Maintenance", Aliases: []string{"In Maintenance"}},
			{Value: "ScheduledMaintenance", Label: "Scheduled Maintenance", Aliases: []string{"Scheduled Maintenance"}},
			{Value: "OutOfService", Label: "Out of Service", Aliases: []string{"Out of Service", "Retired"}},
		},
		OptionLabel: func(rec Record) string {
			tail := format.Text(rec["tail_number"])
			if model := format.Text(rec["aircraft_model"]); model != "" {
				return tail + " (" + model + ")"
			}
			return tail
		},
	}
}

func airportDefinition() *Definition {
	return &Definition{
		Type:     Airports,
		Singular: "Airport",
		Plural:   "Airports",
		Endpoint: "/airports",
		IDField:  "airport_id",
		Icon:     "fa-building",
		Columns: []Column{
			{Key: "iata_code", Label: "IATA", Format: FormatStrong},
			{Key: "icao_code", Label: "ICAO"},
			{Key: "city", Label: "City"},
			{Key: "country", Label: "Country"},
			{Key: "number_of_runways", Label: "Runways", Format: FormatInteger},
			{Key: "number_of_hangars", Label: "Hangars", Format: FormatInteger},
			{Key: "number_of_parkings", Label: "Parkings", Format: FormatInteger},
		},
		Fields: []Field{
			{Key: "iata_code", Label: "IATA Code", Input: InputText, Required: true, Length: 3, Uppercase: true},
			{Key: "icao_code", Label: "ICAO Code", Input: InputText, Length: 4, Uppercase: true},
			{Key: "city", Label: "City", Input: InputText, Required: true},
			{Key: "country", Label: "Country", Input: InputText, Required: true},
			{Key: "latitude", Label: "Latitude", Input: InputNumber, Kind: KindFloat, Min: ptr(-90), Max: ptr(90)},
			{Key: "longitude", Label: "Longitude", Input: InputNumber, Kind: KindFloat, Min: ptr(-180), Max: ptr(180)},
			{Key: "timezone", Label: "Timezone", Input: InputText},
			{Key: "number_of_runways", Label: "Runways", Input: InputNumber, Kind: KindInt, NonNegative: true},
			{Key: "number_of_hangars", Label: "Hangars", Input: InputNumber, Kind: KindInt, NonNegative: true},
			{Key: "number_of_parkings", Label: "Parkings", Input: InputNumber, Kind: KindInt, NonNegative: true},
		},
		OptionLabel: func(rec Record) string {
			code := format.Text(rec["iata_code"])
			if city := format.Text(rec["city"]); city != "" {
				return code + " - " + city
			}
			return code
		},
	}
}

func maintenanceDefinition() *Definition {
	return &Definition{
		Type:     Maintenance,
		Singular: "Maintenance Event",
		Plural:   "Maintenance",
		Endpoint: "/maintenance",
		IDField:  "maintenance_event_id",
		Icon:     "fa-tools",
		Columns: []Column{
			{Key: "maintenance_event_id", Label: "ID"},
			{Key: "aircraft_tail", Label: "Aircraft", Format: FormatStrong},
			{Key: "maintenance_type", Label: "Type"},
			{Key: "start_date_time", Label: "Start", Format: FormatDateTime},
			{Key: "end_date_time", Label: "End", Format: FormatOpenEnded},
			{Key: "maintenance_status", Label: "Status", Format: FormatStatus},
			{Key: "cost", Label: "Cost", Format: FormatCurrency},
		},
		Fields: []Field{
			{Key: "aircraft_id", Label: "Aircraft", Input: InputSelect, Kind: KindRef, Required: true, Source: Aircraft},
			{Key: "hangar_id", Label: "Hangar", Input: InputSelect, Kind: KindRef, Source: Hangars},
			{Key: "maintenance_type", Label: "Maintenance Type", Input: InputText, Required: true},
			{Key: "start_date_time", Label: "Start", Input: InputDateTime, Kind: KindDateTime, Required: true},
			{Key: "end_date_time", Label: "End", Input: InputDateTime, Kind: KindDateTime},
			{Key: "maintenance_status", Label: "Status", Input: InputSelect, Default: "Scheduled"},
			{Key: "description", Label: "Description", Input: InputTextarea},
			{Key: "cost", Label: "Cost (USD)", Input: InputNumber, Kind: KindFloat, NonNegative: true},
		},
		Joins: []Join{
			{Column: "aircraft_tail", Source: Aircraft, LocalKey: "aircraft_id", Field: "tail_number"},
		},
		StatusField: "maintenance_status",
		Statuses: []Status{
			{Value: "Scheduled"},
			{Value: "InProgress", Label: "In Progress", Aliases: []string{"In Progress"}},
			{Value: "Completed", Aliases: []string{"Complete", "Done"}},
		},
		OptionLabel: func(rec Record) string { return format.Text(rec["maintenance_type"]) },
	}
}

func hangarDefinition() *Definition {
	return &Definition{
		Type:     Hangars,
		Singular: "Hangar",
		Plural:   "Hangars",
		Endpoint: "/hangars",
		IDField:  "hangar_id",
		Icon:     "fa-warehouse",
		Columns: []Column{
			{Key: "hangar_id", Label: "ID"},
			{Key: "hangar_name", Label: "Name", Format: FormatStrong},
			{Key: "airport_code", Label: "Airport"},
			{Key: "capacity", Label: "Capacity", Format: FormatInteger},
			{Key: "availability_status", Label: "Status", Format: FormatStatus},
		},
		Fields: []Field{
			{Key: "airport_id", Label: "Airport", Input: InputSelect, Kind: KindRef, Required: true, Source: Airports},
			{Key: "hangar_name", Label: "Hangar Name", Input: InputText, Required: true},
			{Key: "capacity", Label: "Capacity", Input: InputNumber, Kind: KindInt, Required: true, NonNegative: true},
			{Key: "availability_status", Label: "Availability", Input: InputSelect, Default: "Available"},
		},
		Joins: []Join{
			{Column: "airport_code", Source: Airports, LocalKey: "airport_id", Field: "iata_code"},
		},
		StatusField: "availability_status",
		Statuses: []Status{
			{Value: "Available"},
			{Value: "Occupied"},
			{Value: "UnderMaintenance", Label: "Under Maintenance", Aliases: []string{"Under Maintenance", "Maintenance"}},
		},
		OptionLabel: func(rec Record) string { return format.Text(rec["hangar_name"]) },
	}
}
