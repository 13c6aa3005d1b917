package store

import (
	"context"
	"fmt"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetMenuItemsByIDs retrieves menu items by id, scoped to one branch.
// Items belonging to other branches are simply not returned.
func (s *Store) GetMenuItemsByIDs(ctx context.Context, branchID string, ids []string) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM menu_items WHERE branch_id = ? AND id IN (?)", branchID, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.MenuItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// GetMenuItems retrieves all menu items for a branch
func (s *Store) GetMenuItems(ctx context.Context, branchID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM menu_items WHERE branch_id = $1 ORDER BY name", branchID)
	return items, err
}

// GetPaymentMethodByID retrieves a payment method scoped to a branch
func (s *Store) GetPaymentMethodByID(ctx context.Context, branchID, id string) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := s.db.GetContext(ctx, &pm,
		"SELECT * FROM payment_methods WHERE id = $1 AND branch_id = $2 AND active", id, branchID)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// GetPaymentMethodByName retrieves a payment method by name (QR checkout path)
func (s *Store) GetPaymentMethodByName(ctx context.Context, branchID, name string) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := s.db.GetContext(ctx, &pm,
		"SELECT * FROM payment_methods WHERE name = $1 AND branch_id = $2 AND active", name, branchID)
	if err != nil {
		return nil, err
	}
	return &pm, nil
}
