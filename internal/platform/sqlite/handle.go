package sqlite

import (
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

// handle is the query surface shared by the stores: either the pool or a
// transaction, plus the column mapper used for struct scanning.
type handle struct {
	db     sqlx.ExtContext
	mapper *reflectx.Mapper
	logger *slog.Logger
}

func newHandle(db *sqlx.DB, logger *slog.Logger, component string) handle {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return handle{
		db:     db,
		mapper: db.Mapper,
		logger: logger.With(slog.String("component", component)),
	}
}

func (h handle) withTx(tx *sql.Tx) handle {
	return handle{
		db:     &sqlx.Tx{Tx: tx, Mapper: h.mapper},
		mapper: h.mapper,
		logger: h.logger,
	}
}
