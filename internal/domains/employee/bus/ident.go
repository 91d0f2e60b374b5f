package bus

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DateLayout is the wire form of dateOfJoining everywhere outside the store.
const DateLayout = "2006-01-02"

// GenerateEmployeeID derives a human readable id from the department and the
// join date: two digit year, department prefix, 4 digit random suffix. A 2024
// Engineering hire comes out like 24ENG1234.
//
// Missing inputs produce an empty id and no error, the wizard simply has
// nothing to show yet. A date that does not parse is a recoverable validation
// failure: empty id plus an error for the caller to log.
func GenerateEmployeeID(department string, dateOfJoining string) (string, error) {
	if department == "" || dateOfJoining == "" {
		return "", nil
	}

	t, err := time.Parse(DateLayout, dateOfJoining)
	if err != nil {
		return "", fmt.Errorf("parsing dateOfJoining %q: %w", dateOfJoining, err)
	}

	suffix := rand.IntN(9000) + 1000

	return fmt.Sprintf("%s%s%d", t.Format("06"), PrefixFor(department), suffix), nil
}

// ConsistentEmployeeID reports whether id still matches the year and prefix
// that the given inputs would produce. The wizard uses this to decide when a
// department or join date change requires regeneration, re-entering the same
// values must not churn the id.
func ConsistentEmployeeID(id string, department string, dateOfJoining string) bool {
	if id == "" {
		return false
	}

	t, err := time.Parse(DateLayout, dateOfJoining)
	if err != nil {
		return false
	}

	expected := t.Format("06") + PrefixFor(department)
	return len(id) > len(expected) && id[:len(expected)] == expected
}
