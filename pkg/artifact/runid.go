package artifact

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// runIDPattern is the only shape a run identifier may take. Anything else is
// rejected before touching the filesystem.
var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrInvalidRunID is returned when a run identifier fails validation.
var ErrInvalidRunID = fmt.Errorf("invalid run id")

// ValidateRunID rejects identifiers that could escape the runs directory or
// collide with special path names.
func ValidateRunID(id string) error {
	if id == "" || !runIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}
	return nil
}

// NewRunID builds a run identifier from the cocktail name and the given
// timestamp: api_<cocktail-lc>_<YYYYMMDD_HHMMSS>.
func NewRunID(cocktail string, now time.Time) string {
	return fmt.Sprintf("api_%s_%s", strings.ToLower(cocktail), now.Format("20060102_150405"))
}
