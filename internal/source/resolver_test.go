package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engdata/equipsync/internal/source"
	"github.com/engdata/equipsync/internal/source/sourcetest"
)

func TestCanonicalRendering(t *testing.T) {
	tests := []struct {
		name string
		val  source.TypedValue
		want string
	}{
		{"text", source.TypedValue{Kind: source.KindText, Text: "AHU-1"}, "AHU-1"},
		{"integer", source.TypedValue{Kind: source.KindInteger, Integer: 42}, "42"},
		{"negative integer", source.TypedValue{Kind: source.KindInteger, Integer: -7}, "-7"},
		{"real", source.TypedValue{Kind: source.KindReal, Real: 2.5}, "2.5"},
		{"real no trailing zeros", source.TypedValue{Kind: source.KindReal, Real: 10}, "10"},
		{"reference", source.TypedValue{Kind: source.KindReference, Reference: 100123}, "100123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Canonical())
		})
	}
}

func TestResolveOwnAttributeWins(t *testing.T) {
	el := &sourcetest.FakeElement{
		ElemID: 1,
		Attrs: []source.Attribute{
			{Name: "equipment_designation", Value: sourcetest.Text("P-101")},
		},
		Instance: map[string]source.TypedValue{
			"Equipment_Designation": sourcetest.Text("WRONG"),
		},
	}

	got, err := source.Resolve(el, "Equipment_Designation")
	require.NoError(t, err)

	// Case-insensitive own-attribute match takes precedence.
	assert.Equal(t, "P-101", got)
}

func TestResolveInstanceBeatsType(t *testing.T) {
	el := &sourcetest.FakeElement{
		ElemID: 2,
		Instance: map[string]source.TypedValue{
			"Manufacturer": sourcetest.Text("Carrier"),
		},
		Type: &sourcetest.FakeElement{
			ElemID: 900,
			Instance: map[string]source.TypedValue{
				"Manufacturer": sourcetest.Text("Trane"),
			},
		},
	}

	got, err := source.Resolve(el, "Manufacturer")
	require.NoError(t, err)
	assert.Equal(t, "Carrier", got)
}

func TestResolveFallsBackToType(t *testing.T) {
	el := &sourcetest.FakeElement{
		ElemID: 3,
		Type: &sourcetest.FakeElement{
			ElemID: 901,
			Instance: map[string]source.TypedValue{
				"Model": sourcetest.Text("M-200"),
			},
		},
	}

	got, err := source.Resolve(el, "Model")
	require.NoError(t, err)
	assert.Equal(t, "M-200", got)
}

func TestResolveAbsentIsEmptyNotError(t *testing.T) {
	el := &sourcetest.FakeElement{ElemID: 4}

	got, err := source.Resolve(el, "Nonexistent")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveEmptyOwnAttributeFallsThrough(t *testing.T) {
	el := &sourcetest.FakeElement{
		ElemID: 5,
		Attrs: []source.Attribute{
			{Name: "Level", Value: sourcetest.Text("")},
		},
		Instance: map[string]source.TypedValue{
			"Level": sourcetest.Text("Level 2"),
		},
	}

	got, err := source.Resolve(el, "Level")
	require.NoError(t, err)
	assert.Equal(t, "Level 2", got)
}

func TestResolveElementFault(t *testing.T) {
	el := &sourcetest.FakeElement{ElemID: 6, FailAttributes: true}

	_, err := source.Resolve(el, "Equipment_Designation")
	assert.Error(t, err)
}
