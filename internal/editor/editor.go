// Package editor keeps an in-memory working copy of the portfolio document
// and applies add, update and delete operations to it. Every change is
// persisted to the backend as a full-document replace.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/alfredjeanlab/folio/internal/client"
	"github.com/alfredjeanlab/folio/internal/idgen"
	"github.com/alfredjeanlab/folio/internal/model"
)

var (
	// ErrNotLoaded is returned by operations invoked before Load.
	ErrNotLoaded = errors.New("document not loaded")

	// ErrUnknownCollection is returned for a collection name the document
	// does not have.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrDuplicateID is returned when an added item carries an id that is
	// already present in its collection.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNoImageField is returned by AddWithImage for items without an image.
	ErrNoImageField = errors.New("items in this collection have no image")
)

// Remote is the backend the editor persists through. Both client.HTTPClient
// and client.GRPCClient satisfy it.
type Remote interface {
	FetchConfig(ctx context.Context) (*model.Document, error)
	SaveConfig(ctx context.Context, doc *model.Document) error
	DeleteImage(ctx context.Context, path string) (bool, error)
}

// Uploader stores image files. Only the HTTP client provides it.
type Uploader interface {
	UploadImage(ctx context.Context, kind, filename string, body io.Reader) (*client.Image, error)
}

// Policy decides what happens to the working copy when a save fails.
type Policy int

const (
	// KeepLocal leaves the mutated working copy in place. The local copy
	// may then differ from the server until the next successful save.
	KeepLocal Policy = iota
	// Rollback restores the working copy to its state before the change.
	Rollback
	// Refetch reloads the working copy from the server.
	Refetch
)

var policyNames = map[Policy]string{
	KeepLocal: "keep-local",
	Rollback:  "rollback",
	Refetch:   "refetch",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name as accepted by --on-save-failure.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if s == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown save failure policy %q (want keep-local, rollback or refetch)", s)
}

// Upload describes an image to store before an item is added.
type Upload struct {
	// Kind selects the upload folder ("profile", "project" or misc). When
	// empty it is derived from the collection.
	Kind     string
	Filename string
	Body     io.Reader
}

// Editor owns the working copy of the document. It is safe for concurrent
// use; operations are applied one at a time.
type Editor struct {
	mu       sync.Mutex
	remote   Remote
	uploader Uploader
	policy   Policy
	onChange func(*model.Document)
	logger   *slog.Logger
	doc      *model.Document
}

// Option configures an Editor.
type Option func(*Editor)

// WithPolicy sets the save failure policy. The default is KeepLocal.
func WithPolicy(p Policy) Option {
	return func(e *Editor) { e.policy = p }
}

// WithUploader enables AddWithImage.
func WithUploader(u Uploader) Option {
	return func(e *Editor) { e.uploader = u }
}

// WithChangeHook registers fn to receive a copy of the working document
// after every change, including Load. fn runs with the editor locked and
// must not call back into it.
func WithChangeHook(fn func(*model.Document)) Option {
	return func(e *Editor) { e.onChange = fn }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New creates an editor over remote. Call Load before any other operation.
func New(remote Remote, opts ...Option) *Editor {
	e := &Editor{remote: remote, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured save failure policy.
func (e *Editor) Policy() Policy { return e.policy }

// Load fetches the full document from the backend, replacing the working copy.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, err := e.remote.FetchConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	doc.Normalize()
	e.doc = doc
	e.changed()
	return nil
}

// Snapshot returns a deep copy of the working document, or nil before Load.
func (e *Editor) Snapshot() *model.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return nil
	}
	return e.doc.Clone()
}

// List returns the items of a collection in document order.
func (e *Editor) List(c model.Collection) ([]model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, err
	}
	return e.doc.Items(c)
}

// Get returns the item of c with the given id.
func (e *Editor) Get(c model.Collection, id string) (model.Item, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, false, err
	}
	return e.doc.Find(c, id)
}

// Add appends item to c and persists the document. An empty id is replaced
// by a generated "{type}_{nanoid}" id. The stored item is returned.
// Messages are inserted first to keep the inbox newest first.
func (e *Editor) Add(ctx context.Context, c model.Collection, item model.Item) (model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, err
	}
	return e.add(ctx, c, item)
}

// AddFields decodes a JSON object into an item of c and adds it.
func (e *Editor) AddFields(ctx context.Context, c model.Collection, fields json.RawMessage) (model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, err
	}
	item, err := e.doc.DecodeItem(c, fields, "")
	if err != nil {
		return nil, err
	}
	return e.add(ctx, c, item)
}

// AddWithImage uploads up first and adds item with its image set to the
// uploaded path. A failed upload aborts the add.
func (e *Editor) AddWithImage(ctx context.Context, c model.Collection, item model.Item, up Upload) (model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, err
	}
	if e.uploader == nil {
		return nil, errors.New("image upload is not supported by this transport")
	}
	if _, ok := imageOf(item); !ok {
		return nil, fmt.Errorf("%s: %w", c, ErrNoImageField)
	}

	kind := up.Kind
	if kind == "" {
		kind = "misc"
		if c == model.CollectionProjects {
			kind = "project"
		}
	}
	img, err := e.uploader.UploadImage(ctx, kind, up.Filename, up.Body)
	if err != nil {
		return nil, fmt.Errorf("uploading image: %w", err)
	}
	item, _ = withImage(item, img.Path)
	return e.add(ctx, c, item)
}

func (e *Editor) add(ctx context.Context, c model.Collection, item model.Item) (model.Item, error) {
	if id := item.ItemID(); id == "" {
		id, err := idgen.New(c.IDPrefix())
		if err != nil {
			return nil, err
		}
		item = model.WithID(item, id)
	} else if _, found, _ := e.doc.Find(c, id); found {
		return nil, fmt.Errorf("%s %s: %w", c, id, ErrDuplicateID)
	}
	if err := model.ValidateItem(item); err != nil {
		return nil, err
	}

	err := e.mutate(ctx, func(doc *model.Document) error {
		if err := doc.Append(c, item, c == model.CollectionMessages); err != nil {
			return err
		}
		syncStats(doc, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update merges the JSON object patch over the item of c with the given id
// and persists the document. Fields absent from patch keep their value.
// An unknown id is a silent no-op reported as found == false.
func (e *Editor) Update(ctx context.Context, c model.Collection, id string, patch json.RawMessage) (item model.Item, found bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return nil, false, err
	}
	if _, found, _ := e.doc.Find(c, id); !found {
		return nil, false, nil
	}
	err = e.mutate(ctx, func(doc *model.Document) error {
		var err error
		item, _, err = doc.Patch(c, id, patch)
		return err
	})
	if err != nil {
		return nil, true, err
	}
	return item, true, nil
}

// Delete removes the item of c with the given id and persists the document.
// Before a project with an image is removed its image delete is attempted;
// a failure there is logged and does not stop the delete. An unknown id is
// a no-op reported as found == false.
func (e *Editor) Delete(ctx context.Context, c model.Collection, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(c); err != nil {
		return false, err
	}
	item, found, _ := e.doc.Find(c, id)
	if !found {
		return false, nil
	}
	if p, ok := item.(model.Project); ok && p.Image != "" {
		e.deleteImage(ctx, p.Image)
	}
	err := e.mutate(ctx, func(doc *model.Document) error {
		_, _, err := doc.Remove(c, id)
		syncStats(doc, c)
		return err
	})
	return true, err
}

func (e *Editor) deleteImage(ctx context.Context, path string) {
	deleted, err := e.remote.DeleteImage(ctx, path)
	switch {
	case err != nil:
		e.logger.Warn("image delete failed", "path", path, "error", err)
	case !deleted:
		e.logger.Debug("image already gone", "path", path)
	}
}

// Edit applies fn to the working copy and persists the result. It is used
// for the non-collection parts of the document (personal info, social
// links, theme). If fn returns an error the working copy is left unchanged.
func (e *Editor) Edit(ctx context.Context, fn func(doc *model.Document) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNotLoaded
	}
	return e.mutate(ctx, fn)
}

// Persist saves the working copy as is.
func (e *Editor) Persist(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return ErrNotLoaded
	}
	if err := e.remote.SaveConfig(ctx, e.doc); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// Export writes the working copy in the given format.
func (e *Editor) Export(w io.Writer, format model.Format) error {
	doc := e.Snapshot()
	if doc == nil {
		return ErrNotLoaded
	}
	return model.Encode(w, doc, format)
}

// Import replaces the working copy with a document read from r and
// persists it.
func (e *Editor) Import(ctx context.Context, r io.Reader, format model.Format) error {
	doc, err := model.Decode(r, format)
	if err != nil {
		return err
	}
	doc.Admin = nil

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		e.doc = model.NewDocument(nil)
	}
	return e.mutate(ctx, func(d *model.Document) error {
		*d = *doc
		return nil
	})
}

// mutate applies fn to the working copy and saves it. A failing fn leaves
// the working copy untouched; a failing save is reconciled per policy.
// Callers hold e.mu.
func (e *Editor) mutate(ctx context.Context, fn func(doc *model.Document) error) error {
	before := e.doc.Clone()
	if err := fn(e.doc); err != nil {
		e.doc = before
		return err
	}
	if err := e.remote.SaveConfig(ctx, e.doc); err != nil {
		e.reconcile(ctx, before)
		return fmt.Errorf("saving config: %w", err)
	}
	e.changed()
	return nil
}

func (e *Editor) reconcile(ctx context.Context, before *model.Document) {
	switch e.policy {
	case Rollback:
		e.doc = before
	case Refetch:
		doc, err := e.remote.FetchConfig(ctx)
		if err != nil {
			e.logger.Warn("refetch after failed save", "error", err)
			e.doc = before
			break
		}
		doc.Normalize()
		e.doc = doc
	}
	e.changed()
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange(e.doc.Clone())
	}
}

func (e *Editor) check(c model.Collection) error {
	if e.doc == nil {
		return ErrNotLoaded
	}
	if !c.IsValid() {
		return fmt.Errorf("%w %q", ErrUnknownCollection, c)
	}
	return nil
}

// syncStats keeps the derived counters in step with their collection.
func syncStats(doc *model.Document, c model.Collection) {
	switch c {
	case model.CollectionMessages:
		doc.Stats.TotalMessages = len(doc.Messages)
	case model.CollectionProjects:
		doc.Stats.ProjectsCount = len(doc.Projects)
	}
}

func imageOf(item model.Item) (string, bool) {
	switch v := item.(type) {
	case model.Project:
		return v.Image, true
	case model.Certification:
		return v.Image, true
	}
	return "", false
}

func withImage(item model.Item, path string) (model.Item, bool) {
	switch v := item.(type) {
	case model.Project:
		v.Image = path
		return v, true
	case model.Certification:
		v.Image = path
		return v, true
	}
	return item, false
}
