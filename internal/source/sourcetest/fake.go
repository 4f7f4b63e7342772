// Package sourcetest provides in-memory document fakes for tests.
package sourcetest

import (
	"context"
	"fmt"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source"
)

// FakeElement implements source.Element from plain maps. Set FailAttributes
// to make every accessor fail, simulating a corrupt element.
type FakeElement struct {
	ElemID         int64
	Attrs          []source.Attribute
	Instance       map[string]source.TypedValue
	Type           *FakeElement
	FailAttributes bool
}

func (e *FakeElement) ID() int64 { return e.ElemID }

func (e *FakeElement) Attributes() ([]source.Attribute, error) {
	if e.FailAttributes {
		return nil, fmt.Errorf("attribute table unreadable")
	}
	return e.Attrs, nil
}

func (e *FakeElement) Lookup(name string) (*source.TypedValue, error) {
	if e.FailAttributes {
		return nil, fmt.Errorf("attribute table unreadable")
	}
	if v, ok := e.Instance[name]; ok {
		return &v, nil
	}
	return nil, nil
}

func (e *FakeElement) TypeElement() (source.Element, error) {
	if e.Type == nil {
		return nil, nil
	}
	return e.Type, nil
}

// Text wraps a string as a text-kind TypedValue.
func Text(s string) source.TypedValue {
	return source.TypedValue{Kind: source.KindText, Text: s}
}

// FakeDocument implements source.Document over per-category element lists.
type FakeDocument struct {
	ByCategory map[models.Category][]*FakeElement
	Closed     bool
}

func (d *FakeDocument) Elements(category models.Category) ([]source.Element, error) {
	els := d.ByCategory[category]
	out := make([]source.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (d *FakeDocument) Close() error {
	d.Closed = true
	return nil
}

// FakeOpener maps paths to documents. Unknown paths fail the open, which is
// how tests simulate a corrupt or inaccessible source.
type FakeOpener struct {
	Docs map[string]*FakeDocument
}

func (o *FakeOpener) OpenReadOnly(ctx context.Context, path string) (source.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := o.Docs[path]
	if !ok {
		return nil, fmt.Errorf("cannot open document %s", path)
	}
	return doc, nil
}
