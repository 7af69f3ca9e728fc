package db

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return sqlState(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == codeForeignKeyViolation
}

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}
