// Package bundle reads model export bundles: one JSON file per engineering
// model, holding its elements with typed attributes and type references.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/storage"
)

// rawValue is the wire form of one typed attribute value.
type rawValue struct {
	Kind      string  `json:"kind"` // "text" | "integer" | "real" | "reference"
	Text      string  `json:"text,omitempty"`
	Integer   int64   `json:"integer,omitempty"`
	Real      float64 `json:"real,omitempty"`
	Reference int64   `json:"reference,omitempty"`
}

// rawAttribute preserves attribute order, which a JSON map would lose.
type rawAttribute struct {
	Name  string   `json:"name"`
	Value rawValue `json:"value"`
}

type rawElement struct {
	ID         int64           `json:"id"`
	Category   models.Category `json:"category"`
	IsType     bool            `json:"isType,omitempty"`
	TypeID     int64           `json:"typeId,omitempty"`
	Attributes []rawAttribute  `json:"attributes"`
}

type rawBundle struct {
	FormatVersion string       `json:"formatVersion"`
	Elements      []rawElement `json:"elements"`
}

func (v rawValue) typed() (source.TypedValue, error) {
	switch v.Kind {
	case "text":
		return source.TypedValue{Kind: source.KindText, Text: v.Text}, nil
	case "integer":
		return source.TypedValue{Kind: source.KindInteger, Integer: v.Integer}, nil
	case "real":
		return source.TypedValue{Kind: source.KindReal, Real: v.Real}, nil
	case "reference":
		return source.TypedValue{Kind: source.KindReference, Reference: v.Reference}, nil
	default:
		return source.TypedValue{}, fmt.Errorf("unknown value kind %q", v.Kind)
	}
}

// Document is a fully decoded bundle. All reads after open are in-memory.
type Document struct {
	formatVersion string
	byCategory    map[models.Category][]*element
	byID          map[int64]*element
	closed        bool
}

type element struct {
	doc *Document
	raw rawElement
}

func (e *element) ID() int64 { return e.raw.ID }

func (e *element) Attributes() ([]source.Attribute, error) {
	attrs := make([]source.Attribute, 0, len(e.raw.Attributes))
	for _, ra := range e.raw.Attributes {
		tv, err := ra.Value.typed()
		if err != nil {
			return nil, fmt.Errorf("attribute %q of element %d: %w", ra.Name, e.raw.ID, err)
		}
		attrs = append(attrs, source.Attribute{Name: ra.Name, Value: tv})
	}
	return attrs, nil
}

func (e *element) Lookup(name string) (*source.TypedValue, error) {
	for _, ra := range e.raw.Attributes {
		if ra.Name == name {
			tv, err := ra.Value.typed()
			if err != nil {
				return nil, fmt.Errorf("attribute %q of element %d: %w", ra.Name, e.raw.ID, err)
			}
			return &tv, nil
		}
	}
	return nil, nil
}

func (e *element) TypeElement() (source.Element, error) {
	if e.raw.TypeID == 0 {
		return nil, nil
	}
	typeEl, ok := e.doc.byID[e.raw.TypeID]
	if !ok {
		return nil, fmt.Errorf("element %d references unknown type %d", e.raw.ID, e.raw.TypeID)
	}
	return typeEl, nil
}

// FormatVersion returns the declared format version of the bundle.
func (d *Document) FormatVersion() string { return d.formatVersion }

// Elements implements source.Document. Only non-type elements are returned.
func (d *Document) Elements(category models.Category) ([]source.Element, error) {
	if d.closed {
		return nil, fmt.Errorf("document is closed")
	}
	els := d.byCategory[category]
	out := make([]source.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// Close implements source.Document.
func (d *Document) Close() error {
	d.closed = true
	return nil
}

// Opener opens bundles through a storage provider, so the same reader serves
// local shares and object storage.
type Opener struct {
	provider storage.Provider
	logger   logger.Logger
}

func NewOpener(provider storage.Provider, log logger.Logger) *Opener {
	return &Opener{provider: provider, logger: log}
}

// OpenReadOnly implements source.Opener.
func (o *Opener) OpenReadOnly(ctx context.Context, path string) (source.Document, error) {
	rc, err := o.provider.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer rc.Close()

	var raw rawBundle
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode bundle %s: %w", path, err)
	}

	doc := &Document{
		formatVersion: raw.FormatVersion,
		byCategory:    make(map[models.Category][]*element),
		byID:          make(map[int64]*element),
	}
	for i := range raw.Elements {
		el := &element{doc: doc, raw: raw.Elements[i]}
		doc.byID[el.raw.ID] = el
		if !el.raw.IsType {
			doc.byCategory[el.raw.Category] = append(doc.byCategory[el.raw.Category], el)
		}
	}

	o.logger.Debug("Opened model bundle",
		logger.String("path", path),
		logger.Int("elements", len(raw.Elements)),
	)
	return doc, nil
}
