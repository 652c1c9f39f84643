// Package repository implements MySQL persistence for users, refresh
// tokens, resources and bookings.  Each repo wraps an explicitly
// constructed *sql.DB; there is no package-level connection.
//
// The sentinel values below let higher layers tell failure modes apart
// without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a state transition is refused because
// the row is no longer in the expected state, for example cancelling a
// booking that another request already cancelled.  Handlers translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrNameExists is returned when a resource name is already taken.
var ErrNameExists = errors.New("resource name already exists")

// errDuplicateKey is MySQL's ER_DUP_ENTRY.
const errDuplicateKey = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDuplicateKey
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
