package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TxBeginner starts sqlx transactions; *sqlx.DB satisfies it.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. The error returned by fn is passed through untouched.
func WithTx(ctx context.Context, db TxBeginner, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LockKeys takes transaction-scoped advisory locks on keys in sorted order,
// skipping duplicates. The locks are released when the transaction ends.
func LockKeys(ctx context.Context, exec sqlx.ExecerContext, keys ...string) error {
	unique := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, seen := unique[key]; seen {
			continue
		}
		unique[key] = struct{}{}
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	for _, key := range ordered {
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}
	return nil
}

// PostgreSQL error classes the services translate into API errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
)

func pqCode(err error) (string, string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// IsUniqueViolation reports whether err is a unique constraint failure and returns the constraint name.
func IsUniqueViolation(err error) (string, bool) {
	code, constraint, ok := pqCode(err)
	return constraint, ok && code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key failure and returns the constraint name.
func IsForeignKeyViolation(err error) (string, bool) {
	code, constraint, ok := pqCode(err)
	return constraint, ok && code == codeForeignKeyViolation
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	code, _, ok := pqCode(err)
	return ok && code == codeCheckViolation
}

// IsLockTimeout reports whether err came from lock_timeout or statement cancellation while waiting.
func IsLockTimeout(err error) bool {
	code, _, ok := pqCode(err)
	return ok && (code == codeLockNotAvailable || code == codeQueryCanceled)
}
