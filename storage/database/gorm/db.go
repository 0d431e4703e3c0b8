package gormrepos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/trezcool/elimu/core"
)

type txKey struct{}

// transactor implements core.Transactor on top of gorm.DB.Transaction.
type transactor struct {
	db *gorm.DB
}

var _ core.Transactor = (*transactor)(nil)

func NewTransactor(db *gorm.DB) *transactor {
	return &transactor{db: db}
}

func (t transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok { // already in a transaction
		return fn(ctx)
	}
	// deferred constraints only fail on commit
	return translateErr(t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}))
}

// getDB returns the transaction carried by ctx, or db.
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translateErr maps driver errors to the core ones.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrNotFound
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "sql: database is closed") {
		return core.NewShutdownError("database connection is gone")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" { // malformed uuid in a lookup
		return core.ErrNotFound
	}
	if isUniqueViolation(err) {
		return core.ErrConstraintViolation
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}

// Models lists the row models, for gorm.DB.AutoMigrate in tests.
func Models() []interface{} {
	return []interface{}{
		&userRow{},
		&courseRow{},
		&sectionRow{},
		&resourceRow{},
		&questionRow{},
		&purchaseRow{},
		&progressRow{},
		&engineerRow{},
		&timeSlotRow{},
	}
}
