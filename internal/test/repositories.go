package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
)

// PurchaseRepositoryStub is an in-memory purchase ledger. It enforces the
// same two uniqueness constraints as the real storage and surfaces them via
// the same sentinels, so race recovery paths can be exercised by pre-seeding
// competing rows.
type PurchaseRepositoryStub struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Purchase

	// ForcedErr, when set, is returned by every method.
	ForcedErr error
}

// NewPurchaseRepositoryStub creates an empty ledger.
func NewPurchaseRepositoryStub() *PurchaseRepositoryStub {
	return &PurchaseRepositoryStub{rows: make(map[uuid.UUID]model.Purchase)}
}

// Seed inserts a row bypassing constraint checks.
func (s *PurchaseRepositoryStub) Seed(p model.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	s.rows[p.ID] = p
}

// Len reports the number of rows.
func (s *PurchaseRepositoryStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *PurchaseRepositoryStub) Create(_ context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}

	p := *purchase
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for _, row := range s.rows {
		if p.CorrelationID != nil && row.CorrelationID != nil && *row.CorrelationID == *p.CorrelationID {
			return nil, domainErrors.ErrCorrelationTaken
		}
		if p.Status.Active() && row.Status.Active() && row.UserID == p.UserID && row.ProductID == p.ProductID {
			return nil, domainErrors.ErrActiveExists
		}
	}

	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.rows[p.ID] = p
	out := p
	return &out, nil
}

func (s *PurchaseRepositoryStub) GetByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	if row, ok := s.rows[id]; ok {
		out := row
		return &out, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PurchaseRepositoryStub) GetByCorrelationID(_ context.Context, correlationID string) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	for _, row := range s.rows {
		if row.CorrelationID != nil && *row.CorrelationID == correlationID {
			out := row
			return &out, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PurchaseRepositoryStub) GetActiveByUserProduct(_ context.Context, userID string, productID uuid.UUID) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	for _, row := range s.rows {
		if row.UserID == userID && row.ProductID == productID && row.Status.Active() {
			out := row
			return &out, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PurchaseRepositoryStub) GetCancelledByUserProduct(_ context.Context, userID string, productID uuid.UUID) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	for _, row := range s.rows {
		if row.UserID == userID && row.ProductID == productID && row.Status == model.PaymentStatusCancelled {
			out := row
			return &out, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *PurchaseRepositoryStub) ListByUser(_ context.Context, userID string) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	var out []model.Purchase
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *PurchaseRepositoryStub) ListAll(_ context.Context) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	out := make([]model.Purchase, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *PurchaseRepositoryStub) CompleteByCorrelationID(_ context.Context, correlationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return false, s.ForcedErr
	}
	for id, row := range s.rows {
		if row.CorrelationID != nil && *row.CorrelationID == correlationID && row.Status != model.PaymentStatusCancelled {
			row.Status = model.PaymentStatusCompleted
			row.UpdatedAt = time.Now()
			s.rows[id] = row
			return true, nil
		}
	}
	return false, nil
}

func (s *PurchaseRepositoryStub) AttachCorrelation(_ context.Context, id uuid.UUID, correlationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return false, s.ForcedErr
	}
	for otherID, row := range s.rows {
		if otherID != id && row.CorrelationID != nil && *row.CorrelationID == correlationID {
			return false, domainErrors.ErrCorrelationTaken
		}
	}
	row, ok := s.rows[id]
	if !ok || row.Status == model.PaymentStatusCancelled {
		return false, nil
	}
	if row.CorrelationID != nil && *row.CorrelationID != correlationID {
		return false, nil
	}
	corr := correlationID
	row.CorrelationID = &corr
	row.Status = model.PaymentStatusCompleted
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return true, nil
}

func (s *PurchaseRepositoryStub) Reactivate(_ context.Context, id uuid.UUID, price int64, status model.PaymentStatus, correlationID *string, externalTxID *string) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	row, ok := s.rows[id]
	if !ok || row.Status != model.PaymentStatusCancelled {
		return nil, domainErrors.ErrInvalidTransition
	}
	for otherID, other := range s.rows {
		if otherID == id {
			continue
		}
		if correlationID != nil && other.CorrelationID != nil && *other.CorrelationID == *correlationID {
			return nil, domainErrors.ErrCorrelationTaken
		}
		if status.Active() && other.Status.Active() && other.UserID == row.UserID && other.ProductID == row.ProductID {
			return nil, domainErrors.ErrActiveExists
		}
	}
	row.Price = price
	row.Status = status
	row.CorrelationID = correlationID
	if externalTxID != nil {
		row.ExternalTxID = externalTxID
	}
	row.VerifiedAt = nil
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	out := row
	return &out, nil
}

func (s *PurchaseRepositoryStub) Cancel(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return false, s.ForcedErr
	}
	row, ok := s.rows[id]
	if !ok || !row.Status.Active() {
		return false, nil
	}
	row.Status = model.PaymentStatusCancelled
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return true, nil
}

func (s *PurchaseRepositoryStub) SelectUnverifiedBatch(_ context.Context, limit int) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	var out []model.Purchase
	for _, row := range s.rows {
		if row.Status == model.PaymentStatusCompleted && row.CorrelationID != nil && row.VerifiedAt == nil {
			out = append(out, row)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *PurchaseRepositoryStub) MarkVerified(_ context.Context, id uuid.UUID, externalTxID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return s.ForcedErr
	}
	row, ok := s.rows[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	now := time.Now()
	row.VerifiedAt = &now
	if externalTxID != nil {
		row.ExternalTxID = externalTxID
	}
	row.UpdatedAt = now
	s.rows[id] = row
	return nil
}

func sortNewestFirst(purchases []model.Purchase) {
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].CreatedAt.After(purchases[j].CreatedAt)
	})
}

// ProductRepositoryStub is an in-memory catalog.
type ProductRepositoryStub struct {
	mu       sync.Mutex
	products []model.Product

	ForcedErr error
}

// NewProductRepositoryStub creates a catalog with the given products, newest
// last.
func NewProductRepositoryStub(products ...model.Product) *ProductRepositoryStub {
	stub := &ProductRepositoryStub{}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		stub.products = append(stub.products, p)
	}
	return stub
}

func (s *ProductRepositoryStub) Create(_ context.Context, product *model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	p := *product
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	s.products = append(s.products, p)
	out := p
	return &out, nil
}

func (s *ProductRepositoryStub) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	for _, p := range s.products {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ProductRepositoryStub) GetActive(_ context.Context) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForcedErr != nil {
		return nil, s.ForcedErr
	}
	if len(s.products) == 0 {
		return nil, domainErrors.ErrNoActiveProduct
	}
	newest := s.products[0]
	for _, p := range s.products[1:] {
		if p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	out := newest
	return &out, nil
}
