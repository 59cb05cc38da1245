package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TxRepositories exposes the repositories bound to one transaction.
type TxRepositories interface {
	Orders() OrderRepository
	Products() ProductRepository
}

// TxManager runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(TxRepositories) error) error
}

type gormTxRepos struct {
	orders   *GORMOrderRepository
	products *GORMProductRepository
}

func (r gormTxRepos) Orders() OrderRepository     { return r.orders }
func (r gormTxRepos) Products() ProductRepository { return r.products }

// GORMTxManager is a GORM implementation of TxManager.
type GORMTxManager struct {
	db *gorm.DB
}

func NewGORMTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{db: db}
}

func (m *GORMTxManager) WithinTx(ctx context.Context, fn func(TxRepositories) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTxRepos{
			orders:   NewGORMOrderRepository(tx),
			products: NewGORMProductRepository(tx),
		})
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}
