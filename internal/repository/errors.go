package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"signvault/internal/model"
	"signvault/internal/util"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// mapError : sql.ErrNoRows и id не в формате UUID -> model.ErrNotFound, нарушение уникальности -> model.ErrConflict
func mapError(message string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", message, model.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", message, model.ErrConflict)
		case invalidTextRepresentation:
			return fmt.Errorf("%s: %w", message, model.ErrNotFound)
		}
	}

	return util.LogError(message, err)
}

func affectedOne(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
