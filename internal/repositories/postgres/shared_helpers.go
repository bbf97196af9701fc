package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// applyPaginationAndSort applies ordering from a whitelist and bounded
// paging.
func applyPaginationAndSort(query *gorm.DB, allowed map[string]bool, sortBy, sortOrder, fallback string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = fallback
	}
	desc := !strings.EqualFold(sortOrder, "asc")

	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})

	return applyPagination(query, limit, offset)
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// forUpdate adds a row lock. Dialects without row locks ignore the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// wrapNotFound maps gorm's not-found error to repositories.ErrNotFound.
func wrapNotFound(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

// wrapWriteError keeps unique violations recognisable to services.
func wrapWriteError(err error, action string) error {
	if repositories.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to %s: %w: %v", action, repositories.ErrDuplicateKey, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}
