// Package crud is the generic resource controller: list loading, modal forms
// for create and edit, validated submit, and confirmed delete. It is
// parametrized by resources.Definition, so every resource behaves the same.
package crud

import (
	"context"
	"errors"
	"fmt"

	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/notify"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/session"
)

// API is the subset of the airline API client the controller needs.
type API interface {
	resources.Lister
	Get(ctx context.Context, path string) (map[string]any, error)
	Create(ctx context.Context, path string, payload any) (map[string]any, error)
	Update(ctx context.Context, path string, payload any) (map[string]any, error)
	Delete(ctx context.Context, path string) (map[string]any, error)
}

// Option is one select choice.
type Option = resources.Option

// Controller implements the CRUD flows for every registered resource.
type Controller struct {
	api      API
	registry *resources.Registry
	sessions session.Store
	notifier *notify.Service
	metrics  *metrics.MetricsRegistry
}

// NewController wires a controller. m may be nil.
func NewController(api API, registry *resources.Registry, sessions session.Store, notifier *notify.Service, m *metrics.MetricsRegistry) *Controller {
	return &Controller{
		api:      api,
		registry: registry,
		sessions: sessions,
		notifier: notifier,
		metrics:  m,
	}
}

// Registry exposes the resource definitions.
func (c *Controller) Registry() *resources.Registry {
	return c.registry
}

// Notifier exposes the notification service.
func (c *Controller) Notifier() *notify.Service {
	return c.notifier
}

// Outcome is what the UI should do after a submit or delete.
type Outcome struct {
	Notification *notify.Notification
	CloseModal   bool
	// Refresh lists the HTMX events that reload affected views.
	Refresh []string
	// Stale is set when a newer session replaced the one the operation ran
	// under; every UI effect has been dropped.
	Stale bool
}

// Trigger converts the outcome into HTMX events.
func (o *Outcome) Trigger() *notify.Trigger {
	t := notify.NewTrigger()
	if o == nil || o.Stale {
		return t
	}
	if o.Notification != nil {
		t.Toast(*o.Notification)
	}
	if o.CloseModal {
		t.Event(notify.EventCloseModal)
	}
	t.Event(o.Refresh...)
	return t
}

func refreshAfterMutation(resourceType string) []string {
	return []string{notify.RefreshEvent(resourceType), notify.EventDashboard, notify.EventReports}
}

// Resolve returns the client's current session and checks that the form the
// browser posted belongs to it.
func (c *Controller) Resolve(ctx context.Context, client, token string) (session.Session, error) {
	sess, err := c.sessions.Current(ctx, client)
	if err != nil {
		return session.Session{}, err
	}
	if token == "" || sess.Token != token {
		return session.Session{}, session.ErrStale
	}
	return sess, nil
}

// Close clears the client's current session, e.g. when the modal is dismissed.
func (c *Controller) Close(ctx context.Context, client string) error {
	gen, err := c.sessions.Generation(ctx, client)
	if err != nil {
		return err
	}
	_, err = c.sessions.Clear(ctx, client, gen)
	return err
}

func (c *Controller) begin(ctx context.Context, client string, d *resources.Definition, mode session.Mode, id *int64) (session.Session, error) {
	sess, err := c.sessions.Begin(ctx, client, d.Type, mode, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to begin %s session: %w", mode, err)
	}
	if c.metrics != nil {
		c.metrics.SessionsStartedTotal.WithLabelValues(d.Type, string(mode)).Inc()
	}
	return sess, nil
}

// abandon clears a session whose modal never opened.
func (c *Controller) abandon(ctx context.Context, sess session.Session) {
	if _, err := c.sessions.Clear(context.WithoutCancel(ctx), sess.Client, sess.Generation); err != nil {
		logging.Warn("Failed to clear abandoned session", "client", sess.Client, "error", err)
	}
}

// ensureCurrent fails with session.ErrStale unless sess is the client's
// latest generation.
func (c *Controller) ensureCurrent(ctx context.Context, sess session.Session) error {
	gen, err := c.sessions.Generation(ctx, sess.Client)
	if err != nil {
		return err
	}
	if gen != sess.Generation {
		return session.ErrStale
	}
	return nil
}

// superseded reports whether a newer session replaced sess while an
// operation ran under it, counting and logging the discarded result. The
// request context may already be cancelled, so the store is consulted
// without it.
func (c *Controller) superseded(ctx context.Context, sess session.Session) bool {
	err := c.ensureCurrent(context.WithoutCancel(ctx), sess)
	if err == nil {
		return false
	}
	if !errors.Is(err, session.ErrStale) {
		logging.Warn("Failed to verify session generation", "client", sess.Client, "error", err)
		return false
	}

	if c.metrics != nil {
		c.metrics.StaleResultsDiscarded.WithLabelValues(sess.Resource, string(sess.Mode)).Inc()
	}
	logging.Info("Discarding stale result",
		"client", sess.Client,
		"resource", sess.Resource,
		"mode", sess.Mode,
		"generation", sess.Generation,
	)
	return true
}

// finish applies the stale-result guard after a mutation succeeded and
// closes the session.
func (c *Controller) finish(ctx context.Context, sess session.Session, out *Outcome) *Outcome {
	if c.superseded(ctx, sess) {
		return &Outcome{Stale: true}
	}
	if _, err := c.sessions.Clear(context.WithoutCancel(ctx), sess.Client, sess.Generation); err != nil {
		logging.Warn("Failed to clear completed session", "client", sess.Client, "error", err)
	}
	return out
}
