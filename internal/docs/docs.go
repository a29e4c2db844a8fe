// Package docs is a flat document index with folder semantics simulated by
// path prefixes.
package docs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
	"github.com/p-blackswan/fluxdock/internal/kvstore"
)

// IndexKey holds the whole document list.
const IndexKey = "docs:index"

// Document is one record of the index. Path is the full slash-separated
// location, e.g. "/briefs/spring.md".
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ShareID   string    `json:"shareId,omitempty"`
}

// Input is the caller-supplied part of a new document.
type Input struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Patch updates selected fields. Nil fields are left alone.
type Patch struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Size     *int64  `json:"size,omitempty"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&in.Path, validation.Required, validation.By(absolutePath)),
		validation.Field(&in.Size, validation.Min(int64(0))),
	)
}

func absolutePath(v interface{}) error {
	p, _ := v.(string)
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

// Repository manages the document index.
type Repository struct {
	mu     sync.Mutex
	kv     *kvstore.Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewRepository creates a document repository over kv.
func NewRepository(kv *kvstore.Store, logger zerolog.Logger) *Repository {
	return &Repository{
		kv:     kv,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "docs").Logger(),
	}
}

func (r *Repository) load(ctx context.Context) []Document {
	return kvstore.Read(ctx, r.kv, IndexKey, []Document{})
}

func (r *Repository) save(ctx context.Context, all []Document) {
	kvstore.Write(ctx, r.kv, IndexKey, all)
}

// List returns documents whose path starts with prefix, ordered by path.
// An empty prefix lists everything.
func (r *Repository) List(ctx context.Context, prefix string) []Document {
	var out []Document
	for _, d := range r.load(ctx) {
		if inFolder(d.Path, prefix) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get returns a document by id.
func (r *Repository) Get(ctx context.Context, id string) (Document, bool) {
	return r.find(ctx, func(d Document) bool { return d.ID == id })
}

// GetByPath returns the document at path.
func (r *Repository) GetByPath(ctx context.Context, path string) (Document, bool) {
	return r.find(ctx, func(d Document) bool { return d.Path == path })
}

// GetByShareID returns a shared document.
func (r *Repository) GetByShareID(ctx context.Context, shareID string) (Document, bool) {
	if shareID == "" {
		return Document{}, false
	}
	return r.find(ctx, func(d Document) bool { return d.ShareID == shareID })
}

func (r *Repository) find(ctx context.Context, match func(Document) bool) (Document, bool) {
	for _, d := range r.load(ctx) {
		if match(d) {
			return d, true
		}
	}
	return Document{}, false
}

// Create adds a document. Paths are unique.
func (r *Repository) Create(ctx context.Context, in Input) (Document, error) {
	if err := in.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	for _, d := range all {
		if d.Path == in.Path {
			return Document{}, fmt.Errorf("%w: path %s already exists", perrors.ErrInvalidInput, in.Path)
		}
	}

	now := r.now()
	doc := Document{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Path:      in.Path,
		MimeType:  in.MimeType,
		Size:      in.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.save(ctx, append(all, doc))
	r.logger.Debug().Str("doc_id", doc.ID).Str("path", doc.Path).Msg("document created")
	return doc, nil
}

// Update applies patch. Returns false when the document does not exist.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) (Document, bool, error) {
	if patch.Name != nil {
		if err := validation.Validate(*patch.Name, validation.Required, validation.RuneLength(1, 255)); err != nil {
			return Document{}, false, fmt.Errorf("%w: name: %v", perrors.ErrInvalidInput, err)
		}
	}
	if patch.Size != nil && *patch.Size < 0 {
		return Document{}, false, fmt.Errorf("%w: size must be non-negative", perrors.ErrInvalidInput)
	}

	doc, ok := r.modify(ctx, id, func(d *Document) {
		if patch.Name != nil {
			d.Name = *patch.Name
		}
		if patch.MimeType != nil {
			d.MimeType = *patch.MimeType
		}
		if patch.Size != nil {
			d.Size = *patch.Size
		}
	})
	return doc, ok, nil
}

// Move relocates a document. The target path must be free.
func (r *Repository) Move(ctx context.Context, id, newPath string) (Document, bool, error) {
	if err := validation.Validate(newPath, validation.Required, validation.By(absolutePath)); err != nil {
		return Document{}, false, fmt.Errorf("%w: path: %v", perrors.ErrInvalidInput, err)
	}

	var conflict error
	doc, ok := r.modifyAll(ctx, id, func(all []Document, d *Document) {
		for _, other := range all {
			if other.ID != d.ID && other.Path == newPath {
				conflict = fmt.Errorf("%w: path %s already exists", perrors.ErrInvalidInput, newPath)
				return
			}
		}
		d.Path = newPath
	})
	if conflict != nil {
		return Document{}, false, conflict
	}
	return doc, ok, nil
}

// Share assigns a share id on first call and returns the document.
func (r *Repository) Share(ctx context.Context, id string) (Document, bool) {
	doc, ok := r.modify(ctx, id, func(d *Document) {
		if d.ShareID == "" {
			d.ShareID = uuid.New().String()
		}
	})
	return doc, ok
}

// Delete removes a document. Deleting a missing document is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	kept := all[:0:0]
	for _, d := range all {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(all) {
		return false
	}
	r.save(ctx, kept)
	return true
}

// DeleteFolder removes every document under prefix and returns how many were
// removed. The prefix must name a folder, so "/a" does not match "/ab/x".
func (r *Repository) DeleteFolder(ctx context.Context, prefix string) int {
	if prefix == "" || prefix == "/" {
		// refuse to wipe the whole index through a folder delete
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	kept := all[:0:0]
	for _, d := range all {
		if !inFolder(d.Path, prefix) {
			kept = append(kept, d)
		}
	}
	removed := len(all) - len(kept)
	if removed > 0 {
		r.save(ctx, kept)
		r.logger.Info().Str("prefix", prefix).Int("removed", removed).Msg("folder deleted")
	}
	return removed
}

func (r *Repository) modify(ctx context.Context, id string, fn func(d *Document)) (Document, bool) {
	return r.modifyAll(ctx, id, func(_ []Document, d *Document) { fn(d) })
}

func (r *Repository) modifyAll(ctx context.Context, id string, fn func(all []Document, d *Document)) (Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.load(ctx)
	for i := range all {
		if all[i].ID != id {
			continue
		}
		before := all[i]
		fn(all, &all[i])
		if all[i] == before {
			return before, true
		}
		all[i].UpdatedAt = r.now()
		r.save(ctx, all)
		return all[i], true
	}
	return Document{}, false
}

// inFolder reports whether path lies under the folder prefix.
func inFolder(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(path, prefix)
}
