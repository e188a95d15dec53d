package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil, "op", "order", "1"))

	err := Translate(fmt.Errorf("scan: %w", pgx.ErrNoRows), "get order", "order", "o-1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Contains(t, err.Error(), "o-1")

	err = Translate(&pgconn.PgError{Code: "23505", ConstraintName: "products_source_external_id_key"}, "insert", "product", "")
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))

	err = Translate(&pgconn.PgError{Code: "23503", ConstraintName: "orders_customer_id_fkey"}, "insert", "order", "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = Translate(errors.New("conn reset"), "insert order", "order", "")
	assert.True(t, errors.Is(err, apperr.ErrPersistence))
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS orders")
	assert.Contains(t, schema, "UNIQUE (source, external_id)")
}
