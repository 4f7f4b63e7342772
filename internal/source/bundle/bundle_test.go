package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/storage/local"
)

const sampleBundle = `{
  "formatVersion": "2024",
  "elements": [
    {
      "id": 900,
      "category": "Mechanical",
      "isType": true,
      "attributes": [
        {"name": "Manufacturer", "value": {"kind": "text", "text": "Trane"}}
      ]
    },
    {
      "id": 100,
      "category": "Mechanical",
      "typeId": 900,
      "attributes": [
        {"name": "Equipment_Designation", "value": {"kind": "text", "text": "AHU-1"}},
        {"name": "Level", "value": {"kind": "reference", "reference": 42}}
      ]
    },
    {
      "id": 101,
      "category": "Plumbing",
      "attributes": [
        {"name": "Equipment_Designation", "value": {"kind": "text", "text": "P-7"}}
      ]
    }
  ]
}`

func writeBundle(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func openSample(t *testing.T) source.Document {
	t.Helper()
	dir := t.TempDir()
	p := writeBundle(t, dir, "model.json", sampleBundle)

	opener := NewOpener(local.NewProvider(logger.NewTestLogger()), logger.NewTestLogger())
	doc, err := opener.OpenReadOnly(context.Background(), p)
	require.NoError(t, err)
	return doc
}

func TestOpenAndEnumerate(t *testing.T) {
	doc := openSample(t)
	defer doc.Close()

	mech, err := doc.Elements(models.CategoryMechanical)
	require.NoError(t, err)
	// Type-level elements are excluded from enumeration.
	require.Len(t, mech, 1)
	assert.Equal(t, int64(100), mech[0].ID())

	plumb, err := doc.Elements(models.CategoryPlumbing)
	require.NoError(t, err)
	require.Len(t, plumb, 1)

	elec, err := doc.Elements(models.CategoryElectrical)
	require.NoError(t, err)
	assert.Empty(t, elec)
}

func TestTypeFallbackThroughBundle(t *testing.T) {
	doc := openSample(t)
	defer doc.Close()

	mech, err := doc.Elements(models.CategoryMechanical)
	require.NoError(t, err)

	// Manufacturer only exists on the type element.
	got, err := source.Resolve(mech[0], "Manufacturer")
	require.NoError(t, err)
	assert.Equal(t, "Trane", got)

	// Reference values canonicalize to the referenced identity.
	lvl, err := source.Resolve(mech[0], "Level")
	require.NoError(t, err)
	assert.Equal(t, "42", lvl)
}

func TestClosedDocumentRejectsReads(t *testing.T) {
	doc := openSample(t)
	require.NoError(t, doc.Close())

	_, err := doc.Elements(models.CategoryMechanical)
	assert.Error(t, err)
}

func TestOpenRejectsMalformedBundle(t *testing.T) {
	dir := t.TempDir()
	p := writeBundle(t, dir, "broken.json", "{not json")

	opener := NewOpener(local.NewProvider(logger.NewTestLogger()), logger.NewTestLogger())
	_, err := opener.OpenReadOnly(context.Background(), p)
	assert.Error(t, err)
}

func TestDiscoverFollowsLayoutConventions(t *testing.T) {
	base := t.TempDir()
	a := writeBundle(t, base, filepath.Join("06 Revit", "22-104 MEP", "model-a.json"), sampleBundle)
	b := writeBundle(t, base, filepath.Join("06 Revit", "MEP Central", "rev2", "model-b.json"), sampleBundle)
	// Outside a discipline folder: ignored.
	writeBundle(t, base, filepath.Join("06 Revit", "Arch", "model-c.json"), sampleBundle)
	// Wrong extension: ignored.
	writeBundle(t, base, filepath.Join("06 Revit", "Site MEP", "model-d.rvt"), "binary")

	provider := local.NewProvider(logger.NewTestLogger())
	files, err := Discover(context.Background(), provider, base, DefaultDiscovery())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)
}

func TestDiscoverMissingDirIsEmpty(t *testing.T) {
	provider := local.NewProvider(logger.NewTestLogger())
	files, err := Discover(context.Background(), provider, filepath.Join(t.TempDir(), "nope"), DefaultDiscovery())
	require.NoError(t, err)
	assert.Empty(t, files)
}
