package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/engdata/equipsync/internal/models"
)

// Fingerprint computes the stable content hash of a record: SHA-256 over the
// pipe-joined canonical field tuple, rendered as lowercase hex. The field
// order and the delimiter are part of the stored-data contract; changing
// either invalidates every fingerprint already in the store.
func Fingerprint(rec models.EquipmentRecord) string {
	fields := []string{
		strconv.FormatInt(rec.ElementID, 10),
		string(rec.Category),
		rec.Designation,
		rec.Manufacturer,
		rec.Model,
		rec.Level,
		rec.SystemType,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
