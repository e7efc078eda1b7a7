package crud

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"airline-ops/airops/internal/constants"
	"airline-ops/airops/internal/format"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/session"
)

// Form is the modal's create or edit form.
type Form struct {
	Session    session.Session
	Definition *resources.Definition
	Title      string
	SubmitText string
	Fields     []FormField
}

// FormField is one rendered input with its current value.
type FormField struct {
	resources.Field
	Value   string
	Choices []Option
}

// Selected reports whether opt is the field's current value.
func (f FormField) Selected(opt Option) bool {
	return opt.Value == f.Value
}

// Confirmation is the blocking yes/no dialog shown before a delete.
type Confirmation struct {
	Session    session.Session
	Definition *resources.Definition
	ID         int64
	Prompt     string
}

// Modal is whatever the client's current session shows.
type Modal struct {
	Form    *Form
	Confirm *Confirmation
}

// OpenCreate begins a create session and returns an empty form. Options for
// reference fields are loaded first; if any collection fails to load no
// form is produced and the session is abandoned.
func (c *Controller) OpenCreate(ctx context.Context, client, resourceType string) (*Form, error) {
	d, err := c.registry.Get(resourceType)
	if err != nil {
		return nil, err
	}

	sess, err := c.begin(ctx, client, d, session.ModeCreate, nil)
	if err != nil {
		return nil, err
	}

	choices, err := c.loadChoices(ctx, d)
	if err != nil {
		c.abandon(ctx, sess)
		return nil, err
	}

	return buildForm(d, sess, nil, choices), nil
}

// OpenEdit begins an edit session, fetches the record and the reference
// options concurrently, stores the record on the session and returns the
// pre-filled form.
func (c *Controller) OpenEdit(ctx context.Context, client, resourceType string, id int64) (*Form, error) {
	d, err := c.registry.Get(resourceType)
	if err != nil {
		return nil, err
	}

	sess, err := c.begin(ctx, client, d, session.ModeEdit, &id)
	if err != nil {
		return nil, err
	}

	var (
		record  resources.Record
		choices map[string][]Option
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := c.api.Get(gctx, d.ItemPath(id))
		if err != nil {
			return fmt.Errorf("failed to load %s %d: %w", d.Singular, id, err)
		}
		record = d.Normalize(raw)
		return nil
	})
	g.Go(func() error {
		var err error
		choices, err = c.loadChoices(gctx, d)
		return err
	})
	if err := g.Wait(); err != nil {
		c.abandon(ctx, sess)
		return nil, err
	}

	sess = sess.WithPrefetched(record)
	if err := c.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}

	return buildForm(d, sess, record, choices), nil
}

// Reopen rebuilds the modal of the client's current session. Edit forms are
// filled from the prefetched record without fetching it again.
func (c *Controller) Reopen(ctx context.Context, client string) (*Modal, error) {
	sess, err := c.sessions.Current(ctx, client)
	if err != nil {
		return nil, err
	}
	d, err := c.registry.Get(sess.Resource)
	if err != nil {
		return nil, err
	}

	if sess.Mode == session.ModeDelete {
		return &Modal{Confirm: confirmation(d, sess)}, nil
	}

	choices, err := c.loadChoices(ctx, d)
	if err != nil {
		return nil, err
	}

	var record resources.Record
	if sess.Mode == session.ModeEdit && sess.Prefetched != nil {
		record = d.Normalize(sess.Prefetched)
	}
	return &Modal{Form: buildForm(d, sess, record, choices)}, nil
}

// ConfirmDelete begins a delete session. Nothing is sent to the API until
// Delete is called with the user's decision.
func (c *Controller) ConfirmDelete(ctx context.Context, client, resourceType string, id int64) (*Confirmation, error) {
	d, err := c.registry.Get(resourceType)
	if err != nil {
		return nil, err
	}

	sess, err := c.begin(ctx, client, d, session.ModeDelete, &id)
	if err != nil {
		return nil, err
	}
	return confirmation(d, sess), nil
}

func confirmation(d *resources.Definition, sess session.Session) *Confirmation {
	target := fmt.Sprintf("%s #%d", d.Singular, sess.TargetID())
	return &Confirmation{
		Session:    sess,
		Definition: d,
		ID:         sess.TargetID(),
		Prompt:     fmt.Sprintf(constants.MsgDeleteConfirmPrompt, target),
	}
}

// loadChoices fetches every collection d's reference fields draw options
// from, concurrently, failing as a whole.
func (c *Controller) loadChoices(ctx context.Context, d *resources.Definition) (map[string][]Option, error) {
	var sources []*resources.Definition
	for _, f := range d.Fields {
		if f.Source != "" {
			sources = append(sources, c.registry.MustGet(f.Source))
		}
	}
	sources = resources.Unique(sources...)
	if len(sources) == 0 {
		return map[string][]Option{}, nil
	}

	cols, err := resources.FetchAll(ctx, c.api, sources...)
	if err != nil {
		return nil, err
	}

	choices := make(map[string][]Option, len(sources))
	for _, src := range sources {
		choices[src.Type] = src.Options(cols[src.Type])
	}
	return choices, nil
}

func buildForm(d *resources.Definition, sess session.Session, record resources.Record, choices map[string][]Option) *Form {
	form := &Form{
		Session:    sess,
		Definition: d,
		Title:      "Add " + d.Singular,
		SubmitText: "Save",
		Fields:     make([]FormField, 0, len(d.Fields)),
	}
	if sess.Mode == session.ModeEdit {
		form.Title = "Edit " + d.Singular
		form.SubmitText = "Update"
	}

	for _, f := range d.Fields {
		ff := FormField{Field: f}
		if record != nil {
			ff.Value = d.FormValue(record, f.Key)
		} else {
			ff.Value = f.Default
		}

		if f.Input == resources.InputSelect {
			if f.Source != "" {
				ff.Choices = choices[f.Source]
			} else {
				ff.Choices = f.Options
			}
			ff.Choices = withCurrent(ff.Choices, ff.Value, f.Source != "")
		}
		form.Fields = append(form.Fields, ff)
	}
	return form
}

// withCurrent keeps a value that is not among the options selectable, so an
// untouched field submits what it was loaded with.
func withCurrent(opts []Option, value string, reference bool) []Option {
	if value == "" {
		return opts
	}
	for _, o := range opts {
		if o.Value == value {
			return opts
		}
	}

	label := value
	if reference {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			label = fmt.Sprintf("#%d (%s)", id, format.Placeholder)
		}
	}
	out := make([]Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, Option{Value: value, Label: label})
}
