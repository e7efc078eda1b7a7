package crud

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/constants"
	"airline-ops/airops/internal/format"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/session"
)

// ValidationError lists field errors found before any request was sent.
type ValidationError struct {
	Definition *resources.Definition
	Errors     validation.Errors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return e.fieldIndex(keys[i]) < e.fieldIndex(keys[j]) })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := k
		if f, ok := e.Definition.Field(k); ok {
			label = f.Label
		}
		parts = append(parts, fmt.Sprintf("%s %s", label, e.Errors[k].Error()))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Errors
}

func (e *ValidationError) fieldIndex(key string) int {
	for i, f := range e.Definition.Fields {
		if f.Key == key {
			return i
		}
	}
	return len(e.Definition.Fields)
}

var (
	errNotNumber  = validation.NewError(constants.CodeNotNumber, "must be a number")
	errNotInteger = validation.NewError(constants.CodeNotInteger, "must be a whole number")
	errNotDate    = validation.NewError(constants.CodeNotDate, "must be a valid date")
	errNotOption  = validation.NewError(constants.CodeNotOption, "must be one of the listed choices")
)

// BuildPayload validates the posted values against d and coerces each field
// to its declared type. prefetched is the record an edit started from; its
// values stay acceptable for select fields even when no longer listed.
func BuildPayload(d *resources.Definition, values url.Values, prefetched resources.Record) (map[string]any, error) {
	errs := validation.Errors{}
	payload := make(map[string]any, len(d.Fields))

	for _, f := range d.Fields {
		raw := strings.TrimSpace(values.Get(f.Key))
		if f.Uppercase {
			raw = strings.ToUpper(raw)
		}

		var original string
		if prefetched != nil {
			original = d.FormValue(prefetched, f.Key)
		}

		v, err := coerceField(f, raw, original)
		if err != nil {
			errs[f.Key] = err
			continue
		}
		payload[f.Key] = v
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Definition: d, Errors: errs}
	}
	return payload, nil
}

func coerceField(f resources.Field, raw, original string) (any, error) {
	if f.Required {
		if err := validation.Validate(raw, validation.Required); err != nil {
			return nil, err
		}
	}

	if raw == "" {
		if f.BlankZero {
			if f.Kind == resources.KindFloat {
				return float64(0), nil
			}
			return int64(0), nil
		}
		return nil, nil
	}

	switch f.Kind {
	case resources.KindInt, resources.KindRef:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errNotInteger
		}
		if err := validation.Validate(float64(n), numberRules(f)...); err != nil {
			return nil, err
		}
		return n, nil

	case resources.KindFloat:
		x, ok := format.Float(raw)
		if !ok {
			return nil, errNotNumber
		}
		if err := validation.Validate(x, numberRules(f)...); err != nil {
			return nil, err
		}
		return x, nil

	case resources.KindDate:
		s := format.ToDateInput(raw)
		if s == "" {
			return nil, errNotDate
		}
		return s, nil

	case resources.KindDateTime:
		s := format.ToDateTimeInput(raw)
		if s == "" {
			return nil, errNotDate
		}
		return s, nil
	}

	if f.Length > 0 {
		if err := validation.Validate(raw, validation.RuneLength(f.Length, f.Length)); err != nil {
			return nil, err
		}
	}
	if len(f.Options) > 0 && raw != original {
		allowed := make([]any, 0, len(f.Options))
		for _, o := range f.Options {
			allowed = append(allowed, o.Value)
		}
		if err := validation.Validate(raw, validation.In(allowed...).ErrorObject(errNotOption)); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func numberRules(f resources.Field) []validation.Rule {
	var rules []validation.Rule
	if f.NonNegative {
		rules = append(rules, validation.Min(0.0))
	}
	if f.Min != nil {
		rules = append(rules, validation.Min(*f.Min))
	}
	if f.Max != nil {
		rules = append(rules, validation.Max(*f.Max))
	}
	return rules
}

// Submit validates values and sends them for the session's record: PUT for
// edit sessions, POST for create sessions. Validation failures return a
// *ValidationError without contacting the API. API failures are returned
// as is and leave the session open so the form can be corrected, unless a
// newer session began meanwhile; then the outcome is stale either way.
func (c *Controller) Submit(ctx context.Context, sess session.Session, values url.Values) (*Outcome, error) {
	if sess.Mode != session.ModeCreate && sess.Mode != session.ModeEdit {
		return nil, fmt.Errorf("cannot submit a %s session", sess.Mode)
	}
	if err := c.ensureCurrent(ctx, sess); err != nil {
		return nil, err
	}

	d, err := c.registry.Get(sess.Resource)
	if err != nil {
		return nil, err
	}

	var prefetched resources.Record
	if sess.Prefetched != nil {
		prefetched = d.Normalize(sess.Prefetched)
	}

	payload, err := BuildPayload(d, values, prefetched)
	if err != nil {
		return nil, err
	}

	var (
		resp     map[string]any
		fallback string
	)
	if sess.Mode == session.ModeEdit && sess.ID != nil {
		resp, err = c.api.Update(ctx, d.ItemPath(*sess.ID), payload)
		fallback = fmt.Sprintf(constants.MsgUpdated, d.Singular)
	} else {
		resp, err = c.api.Create(ctx, d.CollectionPath(), payload)
		fallback = fmt.Sprintf(constants.MsgCreated, d.Singular)
	}
	if err != nil {
		if c.superseded(ctx, sess) {
			return &Outcome{Stale: true}, nil
		}
		logging.Warn("Submit failed",
			"resource", d.Type,
			"mode", sess.Mode,
			"id", sess.TargetID(),
			"error", err,
		)
		return nil, err
	}

	n := c.notifier.Success(messageOr(resp, fallback))
	return c.finish(ctx, sess, &Outcome{
		Notification: &n,
		CloseModal:   true,
		Refresh:      refreshAfterMutation(d.Type),
	}), nil
}

// Delete carries out the user's decision on a delete session. A declined
// confirmation sends nothing and only closes the dialog.
func (c *Controller) Delete(ctx context.Context, sess session.Session, confirmed bool) (*Outcome, error) {
	if sess.Mode != session.ModeDelete || sess.ID == nil {
		return nil, fmt.Errorf("cannot delete from a %s session", sess.Mode)
	}

	d, err := c.registry.Get(sess.Resource)
	if err != nil {
		return nil, err
	}

	if !confirmed {
		if _, err := c.sessions.Clear(ctx, sess.Client, sess.Generation); err != nil {
			return nil, err
		}
		return &Outcome{CloseModal: true}, nil
	}

	if err := c.ensureCurrent(ctx, sess); err != nil {
		return nil, err
	}

	resp, err := c.api.Delete(ctx, d.ItemPath(*sess.ID))
	if err != nil {
		if c.superseded(ctx, sess) {
			return &Outcome{Stale: true}, nil
		}
		logging.Warn("Delete failed", "resource", d.Type, "id", *sess.ID, "error", err)
		if _, clearErr := c.sessions.Clear(context.WithoutCancel(ctx), sess.Client, sess.Generation); clearErr != nil {
			logging.Warn("Failed to clear session after failed delete", "client", sess.Client, "error", clearErr)
		}
		return nil, err
	}

	n := c.notifier.Success(messageOr(resp, fmt.Sprintf(constants.MsgDeleted, d.Singular)))
	return c.finish(ctx, sess, &Outcome{
		Notification: &n,
		CloseModal:   true,
		Refresh:      refreshAfterMutation(d.Type),
	}), nil
}

func messageOr(resp map[string]any, fallback string) string {
	if msg := apiclient.ResponseMessage(resp); msg != "" {
		return msg
	}
	return fallback
}
