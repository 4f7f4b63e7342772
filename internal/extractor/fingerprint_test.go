package extractor

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engdata/equipsync/internal/models"
)

func baseRecord() models.EquipmentRecord {
	return models.EquipmentRecord{
		ElementID:    100123,
		Category:     models.CategoryMechanical,
		Designation:  "AHU-1",
		Manufacturer: "Trane",
		Model:        "M-200",
		Level:        "Level 2",
		SystemType:   "Supply Air",
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(baseRecord())
	b := Fingerprint(baseRecord())
	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
}

func TestFingerprintSensitiveToEachField(t *testing.T) {
	base := Fingerprint(baseRecord())

	variants := map[string]func(*models.EquipmentRecord){
		"elementId":    func(r *models.EquipmentRecord) { r.ElementID = 999 },
		"category":     func(r *models.EquipmentRecord) { r.Category = models.CategoryPlumbing },
		"designation":  func(r *models.EquipmentRecord) { r.Designation = "AHU-2" },
		"manufacturer": func(r *models.EquipmentRecord) { r.Manufacturer = "Carrier" },
		"model":        func(r *models.EquipmentRecord) { r.Model = "M-201" },
		"level":        func(r *models.EquipmentRecord) { r.Level = "Level 3" },
		"systemType":   func(r *models.EquipmentRecord) { r.SystemType = "Return Air" },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			rec := baseRecord()
			mutate(&rec)
			assert.NotEqual(t, base, Fingerprint(rec))
		})
	}
}

func TestFingerprintIgnoresFingerprintField(t *testing.T) {
	rec := baseRecord()
	rec.Fingerprint = "anything"
	assert.Equal(t, Fingerprint(baseRecord()), Fingerprint(rec))
}
