// Package notify raises transient toast notifications. Notifications travel
// to the browser as HTMX trigger events on the response that produced them.
package notify

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultDuration is how long a toast stays visible unless configured.
const DefaultDuration = 3 * time.Second

// Event names understood by the console's client script.
const (
	EventToast      = "showToast"
	EventCloseModal = "closeModal"
	EventDashboard  = "refresh-dashboard"
	EventReports    = "refresh-reports"
)

// RefreshEvent is the event that reloads a resource's list.
func RefreshEvent(resourceType string) string {
	return "refresh-" + resourceType
}

// Notification is one toast.
type Notification struct {
	Kind     Kind          `json:"kind"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"-"`
}

// Service creates notifications with the configured display duration.
type Service struct {
	duration time.Duration
	metrics  *metrics.MetricsRegistry
}

// NewService creates a notification service. m may be nil.
func NewService(duration time.Duration, m *metrics.MetricsRegistry) *Service {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Service{duration: duration, metrics: m}
}

func (s *Service) Success(message string) Notification {
	return s.New(KindSuccess, message)
}

func (s *Service) Error(message string) Notification {
	return s.New(KindError, message)
}

func (s *Service) Info(message string) Notification {
	return s.New(KindInfo, message)
}

// New builds a notification and records it.
func (s *Service) New(kind Kind, message string) Notification {
	if s.metrics != nil {
		s.metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	}
	if kind == KindError {
		logging.Debug("Raising error notification", "message", message)
	}
	return Notification{Kind: kind, Message: message, Duration: s.duration}
}

type toastPayload struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

// Trigger accumulates HTMX events for one response.
type Trigger struct {
	toast  *Notification
	events []string
}

// NewTrigger creates an empty trigger.
func NewTrigger() *Trigger {
	return &Trigger{}
}

// Toast attaches a notification. The last one wins.
func (t *Trigger) Toast(n Notification) *Trigger {
	t.toast = &n
	return t
}

// Event adds a bare event.
func (t *Trigger) Event(names ...string) *Trigger {
	t.events = append(t.events, names...)
	return t
}

// Empty reports whether nothing was added.
func (t *Trigger) Empty() bool {
	return t.toast == nil && len(t.events) == 0
}

// Header encodes the HX-Trigger header value.
func (t *Trigger) Header() (string, error) {
	payload := make(map[string]any, len(t.events)+1)
	for _, name := range t.events {
		payload[name] = true
	}
	if t.toast != nil {
		payload[EventToast] = toastPayload{
			Kind:       t.toast.Kind,
			Message:    t.toast.Message,
			DurationMS: t.toast.Duration.Milliseconds(),
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return asciiJSON(data), nil
}

// asciiJSON escapes every non-ASCII rune of encoded JSON as \uXXXX. Header
// values are read as Latin-1 by browsers, so only ASCII survives intact;
// JSON.parse restores the original text.
func asciiJSON(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, r := range string(data) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&b, "\\u%04x\\u%04x", r1, r2)
			continue
		}
		fmt.Fprintf(&b, "\\u%04x", r)
	}
	return b.String()
}

// Apply sets the HX-Trigger header on w. Must be called before WriteHeader.
func (t *Trigger) Apply(w http.ResponseWriter) {
	if t.Empty() {
		return
	}
	header, err := t.Header()
	if err != nil {
		logging.Error("Failed to encode HX-Trigger header", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", header)
}

// Events lists the bare event names in sorted order.
func (t *Trigger) Events() []string {
	out := append([]string(nil), t.events...)
	sort.Strings(out)
	return out
}
