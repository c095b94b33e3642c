package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	contactmodels "reconciler/internal/contact/models"
	"reconciler/internal/order/models"
	"reconciler/internal/platform/database"
	txcontext "reconciler/pkg/platform/tx"
)

// PostgresStore persists orders in PostgreSQL, joining the transaction
// carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	query := `
		INSERT INTO orders (product_name, order_value, contact_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_name, order_value, contact_id, created_at
	`
	stored, err := scanOrder(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		order.ProductName,
		order.OrderValue,
		int64(order.ContactID),
		order.CreatedAt,
	))
	if err != nil {
		return nil, database.Classify("insert order", err)
	}
	return stored, nil
}

func (s *PostgresStore) ListByContactIDs(ctx context.Context, ids []contactmodels.ContactID) ([]*models.Order, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	query := `
		SELECT id, product_name, order_value, contact_id, created_at
		FROM orders
		WHERE contact_id = ANY($1::bigint[])
		ORDER BY created_at DESC, id DESC
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, database.Classify("list orders", err)
	}
	defer rows.Close()

	out := make([]*models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, database.Classify("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("iterate orders", err)
	}
	return out, nil
}

type orderRow interface {
	Scan(dest ...any) error
}

func scanOrder(row orderRow) (*models.Order, error) {
	var (
		o         models.Order
		id        int64
		contactID int64
	)
	if err := row.Scan(&id, &o.ProductName, &o.OrderValue, &contactID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.ID = models.OrderID(id)
	o.ContactID = contactmodels.ContactID(contactID)
	return &o, nil
}
