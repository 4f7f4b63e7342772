package source

import (
	"fmt"
	"strings"
)

// Resolve resolves a named field on an element through the fallback chain:
// the element's own attribute set (case-insensitive name match), then an
// instance-level lookup, then the declared type's lookup. An empty string is
// the documented "field absent" signal, not an error.
func Resolve(el Element, fieldName string) (string, error) {
	// Stage 1: scan the element's own attributes.
	attrs, err := el.Attributes()
	if err != nil {
		return "", fmt.Errorf("reading attributes of element %d: %w", el.ID(), err)
	}
	for _, attr := range attrs {
		if strings.EqualFold(attr.Name, fieldName) {
			if s := attr.Value.Canonical(); s != "" {
				return s, nil
			}
			break
		}
	}

	// Stage 2: instance-level named lookup.
	val, err := el.Lookup(fieldName)
	if err != nil {
		return "", fmt.Errorf("instance lookup of %q on element %d: %w", fieldName, el.ID(), err)
	}
	if val != nil {
		if s := val.Canonical(); s != "" {
			return s, nil
		}
	}

	// Stage 3: fall back to the declared type.
	typeEl, err := el.TypeElement()
	if err != nil {
		return "", fmt.Errorf("resolving type of element %d: %w", el.ID(), err)
	}
	if typeEl != nil {
		val, err := typeEl.Lookup(fieldName)
		if err != nil {
			return "", fmt.Errorf("type lookup of %q on element %d: %w", fieldName, el.ID(), err)
		}
		if val != nil {
			if s := val.Canonical(); s != "" {
				return s, nil
			}
		}
	}

	return "", nil
}
