package identity

import (
	"math/big"

	"github.com/google/uuid"
)

const (
	// UIDRoot is the root for UUID-derived UIDs (ISO/IEC 9834-8).
	UIDRoot = "2.25"

	// MaxUIDLength is the DICOM limit for a UI value.
	MaxUIDLength = 64
)

// NewUID returns a fresh UID of the form 2.25.<decimal 128-bit UUID>. The
// result is at most 44 characters and uses only digits and dots.
func NewUID() string {
	u := uuid.New()
	return UIDRoot + "." + new(big.Int).SetBytes(u[:]).String()
}
