package format

import (
	"math"
	"regexp"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"2024-03-07", "3/7/2024"},
		{"2024-03-07T10:15:00", "3/7/2024"},
		{"Thu, 07 Mar 2024 00:00:00 GMT", "3/7/2024"},
		{nil, Placeholder},
		{"", Placeholder},
		{"someday", "someday"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Date(tt.in), "Date(%v)", tt.in)
	}
}

func TestDateTime(t *testing.T) {
	assert.Equal(t, "3/7/2024, 2:05:09 PM", DateTime("2024-03-07T14:05:09"))
	assert.Equal(t, "3/7/2024, 2:05:00 PM", DateTime("2024-03-07 14:05"))
	assert.Equal(t, "12/31/2023, 11:00:00 PM", DateTime("Sun, 31 Dec 2023 23:00:00 GMT"))
	assert.Equal(t, Placeholder, DateTime(nil))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.5", Currency(1234.5))
	assert.Equal(t, "$12,000", Currency(int64(12000)))
	assert.Equal(t, "$0.33", Currency(0.333))
	assert.Equal(t, "$99.9", Currency("99.90"))
	assert.Equal(t, Placeholder, Currency(nil))
	assert.Equal(t, Placeholder, Currency("abc"))
	assert.Equal(t, Placeholder, Currency(math.NaN()))
}

func TestHours(t *testing.T) {
	assert.Equal(t, "1,250.5 hrs", Hours(1250.5))
	assert.Equal(t, "0 hrs", Hours(nil))
	assert.Equal(t, "42 hrs", Hours(json.Number("42")))
}

func TestInteger(t *testing.T) {
	assert.Equal(t, "180", Integer(int64(180)))
	assert.Equal(t, "25,000", Integer(25000.0))
	assert.Equal(t, Placeholder, Integer(nil))
}

func TestToDateInput(t *testing.T) {
	assert.Equal(t, "2024-03-07", ToDateInput("2024-03-07"))
	assert.Equal(t, "2024-03-07", ToDateInput("2024-03-07T23:59:59"))
	assert.Equal(t, "2024-03-07", ToDateInput("Thu, 07 Mar 2024 00:00:00 GMT"))
	assert.Equal(t, "", ToDateInput("not a date"))
	assert.Equal(t, "", ToDateInput(nil))
}

func TestToDateTimeInput(t *testing.T) {
	assert.Equal(t, "2024-03-07T14:05:00", ToDateTimeInput("2024-03-07 14:05:00"))
	assert.Equal(t, "2024-03-07T14:05:00", ToDateTimeInput("2024-03-07T14:05"))
	assert.Equal(t, "2024-03-07T00:00:00", ToDateTimeInput("2024-03-07"))
	assert.Equal(t, "", ToDateTimeInput("garbage"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;O&#39;Hare &amp; co&lt;/b&gt;", EscapeHTML("<b>O'Hare & co</b>"))
	assert.Equal(t, "", EscapeHTML(nil))
}

func TestBadge(t *testing.T) {
	got := Badge("<Active>", "status-active")
	assert.Equal(t, `<span class="status-badge status-active">&lt;Active&gt;</span>`, string(got))
	assert.Contains(t, string(Badge("", "status-unknown")), Placeholder)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "in-progress", Slug("InProgress"))
	assert.Equal(t, "in-progress", Slug("In Progress"))
	assert.Equal(t, "in-progress", Slug("in_progress"))
	assert.Equal(t, "out-of-service", Slug("Out of Service"))
	assert.Equal(t, "out-of-service", Slug("OutOfService"))
	assert.Equal(t, "on-leave", Slug("OnLeave"))
	assert.Equal(t, "", Slug("  "))
}

var cssSafe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlug_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "status")
		slug := Slug(s)

		if slug != "" && !cssSafe.MatchString(slug) {
			t.Fatalf("Slug(%q) = %q is not CSS safe", s, slug)
		}
		if Slug(slug) != slug {
			t.Fatalf("Slug is not idempotent on %q", s)
		}
	})
}

func TestFloat_NeverNaN(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "raw")
		if f, ok := Float(s); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			t.Fatalf("Float(%q) returned non-finite %v", s, f)
		}
	})
}
