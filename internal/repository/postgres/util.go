package postgres

import (
	"errors"

	"github.com/NordCoder/Restora/internal/domain/repoerr"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = repoerr.ErrNotFound
	ErrConflict = repoerr.ErrConflict
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
