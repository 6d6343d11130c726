// Package sqldb stores the account namespace in MySQL or SQLite through database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/lugondev/go-tokengate/internal/config"
	"github.com/lugondev/go-tokengate/internal/storage"
)

func init() {
	storage.RegisterFactory(storage.DatabaseTypeMySQL, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewMySQLRepository(ctx, &cfg.MySQL)
	})
	storage.RegisterFactory(storage.DatabaseTypeSQLite, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewSQLiteRepository(ctx, &cfg.SQLite)
	})
}

// Dialect selects driver-specific SQL.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

type SQLRepository struct {
	db          *sql.DB
	dialect     Dialect
	accountRepo *sqlAccountRepository
}

func NewMySQLRepository(ctx context.Context, cfg *config.MySQLConfig) (*SQLRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return open(ctx, db, DialectMySQL)
}

func NewSQLiteRepository(ctx context.Context, cfg *config.SQLiteConfig) (*SQLRepository, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	return open(ctx, db, DialectSQLite)
}

// NewWithDB wraps an existing handle. Migrations are run before returning.
func NewWithDB(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLRepository, error) {
	return open(ctx, db, dialect)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLRepository, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := NewMigrator(db, dialect)
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLRepository{
		db:          db,
		dialect:     dialect,
		accountRepo: &sqlAccountRepository{db: db, dialect: dialect},
	}, nil
}

func (r *SQLRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type sqlAccountRepository struct {
	db      *sql.DB
	dialect Dialect
}

func (r *sqlAccountRepository) Allocate(ctx context.Context, account *storage.AccountModel) error {
	var query string
	switch r.dialect {
	case DialectSQLite:
		query = `
		INSERT INTO accounts (id, address, owner, payer, lamports, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING`
	default:
		query = `
		INSERT INTO accounts (id, address, owner, payer, lamports, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	}

	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.Address, account.Owner, account.Payer,
		int64(account.Lamports), account.Data, account.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrAccountExists
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrAccountExists
	}
	return nil
}

func (r *sqlAccountRepository) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	query := `SELECT id, address, owner, payer, lamports, data, created_at
		FROM accounts WHERE address = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, address))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *sqlAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	query := `SELECT id, address, owner, payer, lamports, data, created_at
		FROM accounts WHERE owner = ? ORDER BY created_at DESC, address ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*storage.AccountModel
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*storage.AccountModel, error) {
	var account storage.AccountModel
	var lamports, createdAt int64
	if err := row.Scan(
		&account.ID, &account.Address, &account.Owner, &account.Payer,
		&lamports, &account.Data, &createdAt,
	); err != nil {
		return nil, err
	}
	account.Lamports = uint64(lamports)
	account.CreatedAt = time.Unix(0, createdAt).UTC()
	return &account, nil
}

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	if mysqlErr, ok := err.(*mysql.MySQLError); ok {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
