// Package sqlxrepos implements the repositories on PostgreSQL.
package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
)

// unique_violation
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return nullTime(*t)
}

// orderBy renders orderings whose field is in allowed, defaulting to fallback.
func orderBy(orderings []core.DBOrdering, allowed []string, fallback string) string {
	clauses := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		for _, field := range allowed {
			if ord.Field == field {
				clauses = append(clauses, pq.QuoteIdentifier(field)+" "+ascOrDesc(ord))
				break
			}
		}
	}
	clauses = append(clauses, fallback)
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func ascOrDesc(ord core.DBOrdering) string {
	if ord.Ascending {
		return "ASC"
	}
	return "DESC"
}
