package mssql

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mp911de/2dbc-mssql/pkg/werror"
)

// IsolationLevel mirrors the SQL Server SET TRANSACTION ISOLATION LEVEL values.
type IsolationLevel string

const (
	ReadUncommitted IsolationLevel = "READ UNCOMMITTED"
	ReadCommitted   IsolationLevel = "READ COMMITTED"
	RepeatableRead  IsolationLevel = "REPEATABLE READ"
	Serializable    IsolationLevel = "SERIALIZABLE"
	Snapshot        IsolationLevel = "SNAPSHOT"
)

var identifierPattern = regexp.MustCompile(`^[\w\d_]{1,32}$`)

// ErrInvalidIdentifier classifies a transaction/savepoint name that still
// fails validation after sanitization as a caller-validation error.
var ErrInvalidIdentifier = werror.New("mssql: invalid transaction identifier")

// Sanitize normalizes a user-supplied transaction or savepoint name into a
// valid T-SQL identifier: '-' and '.' become '_', the name is truncated to
// its trailing maxLength characters, and a leading non-alphanumeric
// character is dropped. The result still must satisfy Validate.
func Sanitize(identifier string, maxLength int) string {
	s := strings.NewReplacer("-", "_", ".", "_").Replace(identifier)
	if len(s) > maxLength {
		s = s[len(s)-maxLength:]
	}
	if len(s) > 0 && !isAlphanumeric(rune(s[0])) {
		s = s[1:]
	}
	return s
}

// ValidateIdentifier checks a (already sanitized, typically) identifier
// against the allowed pattern and non-empty length.
func ValidateIdentifier(identifier string, maxLength int) error {
	if len(identifier) == 0 || len(identifier) > maxLength || !identifierPattern.MatchString(identifier) {
		return werror.Wrapf(ErrInvalidIdentifier, "identifier %q is not a valid T-SQL name", identifier)
	}
	return nil
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// BeginTransaction builds the text command that starts a transaction,
// optionally named, with the given isolation level and lock wait timeout.
// It never emits a WITH MARK clause; an empty isolation level or a zero
// timeout omits the corresponding SET statement.
func BeginTransaction(name string, isolation IsolationLevel, lockWaitTimeout time.Duration) string {
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION")
	if name != "" {
		fmt.Fprintf(&b, " %s", name)
	}
	b.WriteString(";")
	if isolation != "" {
		fmt.Fprintf(&b, " SET TRANSACTION ISOLATION LEVEL %s;", isolation)
	}
	if lockWaitTimeout != 0 {
		fmt.Fprintf(&b, " SET LOCK_TIMEOUT %d;", lockWaitTimeoutMillis(lockWaitTimeout))
	}
	return b.String()
}

func lockWaitTimeoutMillis(d time.Duration) int64 {
	if d < 0 {
		return -1 // SQL Server's infinite-wait sentinel
	}
	return d.Milliseconds()
}

// CommitTransaction builds the text command to commit: the single
// idempotent "IF @@TRANCOUNT > 0" commit statement, with no further
// cleanup statement appended.
//
// The source driver this engine is modeled on installs its post-success
// callback twice (two identical chained success callbacks); that
// duplication has no observable effect, so it is not replicated here.
func CommitTransaction() string {
	return "IF @@TRANCOUNT > 0 COMMIT TRANSACTION;"
}

// RollbackTransaction builds the text command to roll back: the single
// idempotent "IF @@TRANCOUNT > 0" rollback statement, with no further
// cleanup statement appended, like CommitTransaction.
func RollbackTransaction() string {
	return "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION;"
}

// Savepoint builds the text command that establishes savepoint name,
// starting an implicit transaction first if none is open.
func Savepoint(name string) string {
	return fmt.Sprintf(
		"SET IMPLICIT_TRANSACTIONS ON; IF @@TRANCOUNT = 0 BEGIN BEGIN TRAN IF @@TRANCOUNT = 2 COMMIT TRAN END SAVE TRAN %s;",
		name,
	)
}

// RollbackToSavepoint builds the text command that rolls back to a
// previously established savepoint.
func RollbackToSavepoint(name string) string {
	return fmt.Sprintf("ROLLBACK TRANSACTION %s", name)
}
