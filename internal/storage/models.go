package storage

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/go-tokengate/pkg/types"
)

type AccountModel struct {
	ID        string    `json:"id" bson:"_id,omitempty" db:"id"`
	Address   string    `json:"address" bson:"address" db:"address"`
	Owner     string    `json:"owner" bson:"owner" db:"owner"`
	Payer     string    `json:"payer" bson:"payer" db:"payer"`
	Lamports  uint64    `json:"lamports" bson:"lamports" db:"lamports"`
	Data      []byte    `json:"data" bson:"data" db:"data"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// NewAccountModel builds a model for a freshly allocated account.
func NewAccountModel(address, owner, payer types.Pubkey, lamports uint64, data []byte) *AccountModel {
	return &AccountModel{
		ID:        uuid.NewString(),
		Address:   address.String(),
		Owner:     owner.String(),
		Payer:     payer.String(),
		Lamports:  lamports,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// ToAccount converts the model to a raw account. Unparsable owners yield a zero key.
func (m *AccountModel) ToAccount() *types.Account {
	owner, _ := solana.PublicKeyFromBase58(m.Owner)
	return &types.Account{
		Lamports: m.Lamports,
		Data:     m.Data,
		Owner:    owner,
	}
}
