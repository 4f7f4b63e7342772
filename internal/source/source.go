package source

import (
	"context"
	"strconv"

	"github.com/engdata/equipsync/internal/models"
)

// ValueKind tags the underlying storage type of an attribute value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindInteger
	KindReal
	KindReference
)

// TypedValue is one attribute value with its storage kind. Only the field
// matching Kind is meaningful.
type TypedValue struct {
	Kind      ValueKind
	Text      string
	Integer   int64
	Real      float64
	Reference int64
}

// Canonical renders the value as a deterministic, locale-independent string.
// The output feeds content fingerprints, so the rendering per kind is a
// stable contract.
func (v TypedValue) Canonical() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindInteger:
		return strconv.FormatInt(v.Integer, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindReference:
		return strconv.FormatInt(v.Reference, 10)
	default:
		return ""
	}
}

// Attribute is a named value attached directly to an element.
type Attribute struct {
	Name  string
	Value TypedValue
}

// Element is one model element exposed by a document. Implementations may
// resolve attributes lazily, so every accessor can fail per element.
type Element interface {
	// ID returns the document-scoped element identity. Not stable across
	// re-extraction.
	ID() int64

	// Attributes returns the element's own attribute set.
	Attributes() ([]Attribute, error)

	// Lookup resolves a named attribute at the instance level. Returns nil
	// when the attribute is absent or unpopulated.
	Lookup(name string) (*TypedValue, error)

	// TypeElement returns the element's declared type, or nil when the
	// element has none.
	TypeElement() (Element, error)
}

// Document is an open model document. The pipeline only reads; nothing is
// ever persisted back.
type Document interface {
	// Elements enumerates the non-type-level elements of one category.
	Elements(category models.Category) ([]Element, error)

	// Close releases the document. Safe to call on every exit path.
	Close() error
}

// Opener opens model documents read-only. External opens can hang, so the
// context carries the per-open timeout.
type Opener interface {
	OpenReadOnly(ctx context.Context, path string) (Document, error)
}
