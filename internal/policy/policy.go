// Package policy gates deletion attempts during a typing session.
package policy

import "github.com/sbsidd17/type-scribe-zen/internal/model"

// DeletionAllowed reports whether shrinking the current word buffer from
// current to attempted is permitted under the given correction mode.
// The committed words are the space-terminated words already locked in;
// no mode may reach back into them. The predicate has no side effects:
// a rejected deletion is observable to the caller only as an unchanged
// buffer.
func DeletionAllowed(mode model.BackspaceMode, current, attempted string, committed []string) bool {
	switch mode {
	case model.BackspaceFull:
		return true
	case model.BackspaceDisabled:
		return false
	case model.BackspaceWordLevel:
		// The buffer holds only the in-progress word, so a shrink that
		// keeps a non-negative length never crosses the word boundary.
		// Committed words live outside the buffer and stay out of reach.
		return len(attempted) >= 0
	}
	return false
}
