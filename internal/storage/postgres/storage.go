package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/domain/repository"
)

const (
	correlationConstraint = "purchases_correlation_key"
	activePairConstraint  = "purchases_active_user_product_key"
)

// pgxPool is the subset of pgxpool.Pool used by the storage. It exists so
// tests can substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type purchaseRepository struct {
	storage *Storage
}

type productRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Purchases returns the purchase ledger repository.
func (s *Storage) Purchases() repository.PurchaseRepository {
	return &purchaseRepository{storage: s}
}

// Products returns the catalog repository.
func (s *Storage) Products() repository.ProductRepository {
	return &productRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            original_price BIGINT NOT NULL,
            discounted_price BIGINT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS purchases (
            id UUID PRIMARY KEY,
            user_id TEXT NOT NULL,
            product_id UUID NOT NULL REFERENCES products(id),
            price BIGINT NOT NULL CHECK (price >= 0),
            payment_status TEXT NOT NULL,
            payment_id TEXT,
            external_tx_id TEXT,
            verified_at TIMESTAMPTZ,
            verify_attempts INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS purchases_correlation_key
            ON purchases(payment_id) WHERE payment_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS purchases_active_user_product_key
            ON purchases(user_id, product_id) WHERE payment_status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// mapUniqueViolation converts a 23505 into the sentinel matching the violated
// constraint, so callers can branch into the merge-update path.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case correlationConstraint:
		return domainErrors.ErrCorrelationTaken
	case activePairConstraint:
		return domainErrors.ErrActiveExists
	default:
		return err
	}
}

const purchaseColumns = `id, user_id, product_id, price, payment_status, payment_id, external_tx_id, verified_at, created_at, updated_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Price, &p.Status,
		&p.CorrelationID, &p.ExternalTxID, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPurchases(rows pgx.Rows) ([]model.Purchase, error) {
	defer rows.Close()

	var result []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Price, &p.Status,
			&p.CorrelationID, &p.ExternalTxID, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- PurchaseRepository implementation ---

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	const query = `INSERT INTO purchases (id, user_id, product_id, price, payment_status, payment_id, external_tx_id)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   RETURNING created_at, updated_at`

	p := *purchase
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.storage.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.ProductID, p.Price, p.Status, p.CorrelationID, p.ExternalTxID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &p, nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1`
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE payment_id=$1`
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, correlationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepository) GetActiveByUserProduct(ctx context.Context, userID string, productID uuid.UUID) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases
                   WHERE user_id=$1 AND product_id=$2 AND payment_status <> 'cancelled'`
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, userID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepository) GetCancelledByUserProduct(ctx context.Context, userID string, productID uuid.UUID) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases
                   WHERE user_id=$1 AND product_id=$2 AND payment_status = 'cancelled'
                   ORDER BY updated_at DESC LIMIT 1`
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, userID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepository) ListByUser(ctx context.Context, userID string) ([]model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanPurchases(rows)
}

func (r *purchaseRepository) ListAll(ctx context.Context) ([]model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanPurchases(rows)
}

func (r *purchaseRepository) CompleteByCorrelationID(ctx context.Context, correlationID string) (bool, error) {
	const query = `UPDATE purchases SET payment_status='completed', updated_at=NOW()
                   WHERE payment_id=$1 AND payment_status <> 'cancelled'`
	tag, err := r.storage.pool.Exec(ctx, query, correlationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *purchaseRepository) AttachCorrelation(ctx context.Context, id uuid.UUID, correlationID string) (bool, error) {
	const query = `UPDATE purchases SET payment_id=$2, payment_status='completed', updated_at=NOW()
                   WHERE id=$1 AND (payment_id IS NULL OR payment_id=$2) AND payment_status <> 'cancelled'`
	tag, err := r.storage.pool.Exec(ctx, query, id, correlationID)
	if err != nil {
		return false, mapUniqueViolation(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *purchaseRepository) Reactivate(ctx context.Context, id uuid.UUID, price int64, status model.PaymentStatus, correlationID *string, externalTxID *string) (*model.Purchase, error) {
	const query = `UPDATE purchases
                   SET price=$2, payment_status=$3, payment_id=$4,
                       external_tx_id=COALESCE($5, external_tx_id),
                       verified_at=NULL, verify_attempts=0, updated_at=NOW()
                   WHERE id=$1 AND payment_status='cancelled'
                   RETURNING ` + purchaseColumns
	p, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, id, price, status, correlationID, externalTxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrInvalidTransition
		}
		return nil, mapUniqueViolation(err)
	}
	return p, nil
}

func (r *purchaseRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE purchases SET payment_status='cancelled', updated_at=NOW()
                   WHERE id=$1 AND payment_status IN ('pending', 'completed')`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *purchaseRepository) SelectUnverifiedBatch(ctx context.Context, limit int) ([]model.Purchase, error) {
	selectQuery := `SELECT ` + purchaseColumns + ` FROM purchases
                         WHERE payment_status='completed' AND payment_id IS NOT NULL
                               AND verified_at IS NULL AND verify_attempts < 5
                         ORDER BY updated_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var purchases []model.Purchase
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}

		purchases, err = scanPurchases(rows)
		if err != nil {
			return err
		}

		for _, p := range purchases {
			if _, err := tx.Exec(ctx, `UPDATE purchases SET verify_attempts=verify_attempts+1 WHERE id=$1`, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepository) MarkVerified(ctx context.Context, id uuid.UUID, externalTxID *string) error {
	const query = `UPDATE purchases
                   SET verified_at=NOW(), external_tx_id=COALESCE($2, external_tx_id), updated_at=NOW()
                   WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id, externalTxID)
	return err
}

// --- ProductRepository implementation ---

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	const query = `INSERT INTO products (id, title, original_price, discounted_price)
                   VALUES ($1, $2, $3, $4)
                   RETURNING created_at`

	p := *product
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	if err := r.storage.pool.QueryRow(ctx, query, p.ID, p.Title, p.OriginalPrice, p.DiscountedPrice).Scan(&p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const query = `SELECT id, title, original_price, discounted_price, created_at FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Title, &p.OriginalPrice, &p.DiscountedPrice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetActive(ctx context.Context) (*model.Product, error) {
	const query = `SELECT id, title, original_price, discounted_price, created_at
                   FROM products ORDER BY created_at DESC LIMIT 1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query).Scan(&p.ID, &p.Title, &p.OriginalPrice, &p.DiscountedPrice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNoActiveProduct
		}
		return nil, err
	}
	return &p, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
