package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-tokengate/internal/storage"
)

type postgresAccountRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresAccountRepository) Allocate(ctx context.Context, account *storage.AccountModel) error {
	query := `
		INSERT INTO accounts (id, address, owner, payer, lamports, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		account.ID, account.Address, account.Owner, account.Payer,
		int64(account.Lamports), account.Data, account.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountExists
	}
	return nil
}

func (r *postgresAccountRepository) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	query := `SELECT id, address, owner, payer, lamports, data, created_at
		FROM accounts WHERE address = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *postgresAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	query := `SELECT id, address, owner, payer, lamports, data, created_at
		FROM accounts WHERE owner = $1 ORDER BY created_at DESC, address ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*storage.AccountModel, error) {
		return scanAccount(row)
	})
}

func scanAccount(row pgx.Row) (*storage.AccountModel, error) {
	var account storage.AccountModel
	var lamports int64
	if err := row.Scan(
		&account.ID, &account.Address, &account.Owner, &account.Payer,
		&lamports, &account.Data, &account.CreatedAt,
	); err != nil {
		return nil, err
	}
	account.Lamports = uint64(lamports)
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}
