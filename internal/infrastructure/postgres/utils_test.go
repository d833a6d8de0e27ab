package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/goldshop-api/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "categories_company_code_key"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert category: %w", unique)), "debe ver a través del wrap")
	assert.False(t, isUniqueViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("conexión rechazada")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "categories_parent_id_fkey"}
	unique := &pgconn.PgError{Code: "23505"}

	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("exec: %w", fk)), "debe ver a través del wrap")
	assert.False(t, isForeignKeyViolation(unique))
	assert.False(t, isForeignKeyViolation(errors.New("conexión rechazada")))
}

func TestDeleteError_HijoAgregadoEnCarreraEsHasChildren(t *testing.T) {
	err := deleteError(&pgconn.PgError{Code: "23503", ConstraintName: "categories_parent_id_fkey"})
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	other := errors.New("conexión rechazada")
	err = deleteError(other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrHasChildren)
}
