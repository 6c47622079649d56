package persistence

import (
	"errors"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes surfaced as persistence errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateError maps driver and GORM errors onto domain errors.
// Unknown errors pass through unchanged.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewPersistenceError(err, "%s already exists", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewPersistenceError(err, "%s references a record that does not exist", entity)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.NewPersistenceError(err, "%s violates a check constraint", entity)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return shared.NewPersistenceError(err, "%s already exists", entity)
		case pgForeignKeyViolation:
			return shared.NewPersistenceError(err, "%s references a record that does not exist", entity)
		case pgCheckViolation:
			return shared.NewPersistenceError(err, "%s violates a check constraint", entity)
		}
	}
	return err
}
