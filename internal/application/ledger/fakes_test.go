package ledger_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// memStore estado en memoria compartido por los repos fake. El txRunner fake
// toma un snapshot al inicio y lo restaura si el callback falla, de modo que
// la atomicidad de las operaciones sea verificable sin base de datos.
type memStore struct {
	records   map[string]*entity.StockRecord
	movements []*entity.Movement
	products  map[string]*entity.Product
	users     map[string]*entity.User
}

func newMemStore() *memStore {
	return &memStore{
		records:  map[string]*entity.StockRecord{},
		products: map[string]*entity.Product{},
		users:    map[string]*entity.User{},
	}
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for id, r := range s.records {
		clone := *r
		snap.records[id] = &clone
	}
	snap.movements = append([]*entity.Movement(nil), s.movements...)
	for id, p := range s.products {
		snap.products[id] = p
	}
	for id, u := range s.users {
		snap.users[id] = u
	}
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.records = snap.records
	s.movements = snap.movements
	s.products = snap.products
	s.users = snap.users
}

// seedRecord inserta una fila directamente (para fijar created_at en tests FIFO).
func (s *memStore) seedRecord(r *entity.StockRecord) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	s.records[r.ID] = r
}

// ── StockRecordRepository fake ───────────────────────────────────────────────

type fakeStockRepo struct{ s *memStore }

var _ repository.StockRecordRepository = (*fakeStockRepo)(nil)

func (f *fakeStockRepo) GetForUpdate(productID, location string, batch *string) (*entity.StockRecord, error) {
	for _, r := range f.s.records {
		if r.ProductID == productID && r.Location == location && sameBatch(r.Batch, batch) {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStockRepo) GetByIDForUpdate(id string) (*entity.StockRecord, error) {
	return f.s.records[id], nil
}

func (f *fakeStockRepo) ListForUpdate(productID, location string) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	for _, r := range f.s.records {
		if r.ProductID == productID && r.Location == location {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStockRepo) Create(record *entity.StockRecord) error {
	f.s.records[record.ID] = record
	return nil
}

func (f *fakeStockRepo) Save(record *entity.StockRecord) error {
	f.s.records[record.ID] = record
	return nil
}

func (f *fakeStockRepo) SumQuantity(productID string, location *string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range f.s.records {
		if r.ProductID == productID && (location == nil || r.Location == *location) {
			total = total.Add(r.Quantity)
		}
	}
	return total, nil
}

func (f *fakeStockRepo) SumUnreserved(productID string, location *string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range f.s.records {
		if r.ProductID == productID && (location == nil || r.Location == *location) {
			total = total.Add(r.AvailableQuantity())
		}
	}
	return total, nil
}

func (f *fakeStockRepo) StockByLocation(productID string) ([]repository.LocationStock, error) {
	byLoc := map[string]*repository.LocationStock{}
	for _, r := range f.s.records {
		if r.ProductID != productID {
			continue
		}
		ls, ok := byLoc[r.Location]
		if !ok {
			ls = &repository.LocationStock{Location: r.Location, TotalQuantity: decimal.Zero}
			byLoc[r.Location] = ls
		}
		ls.TotalQuantity = ls.TotalQuantity.Add(r.Quantity)
		ls.BatchCount++
	}
	var out []repository.LocationStock
	for _, ls := range byLoc {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (f *fakeStockRepo) totalsByProduct() map[string]decimal.Decimal {
	totals := map[string]decimal.Decimal{}
	for _, r := range f.s.records {
		if cur, ok := totals[r.ProductID]; ok {
			totals[r.ProductID] = cur.Add(r.Quantity)
		} else {
			totals[r.ProductID] = r.Quantity
		}
	}
	return totals
}

func (f *fakeStockRepo) ListLowStock() ([]repository.ProductStockLevel, error) {
	var out []repository.ProductStockLevel
	for productID, total := range f.totalsByProduct() {
		p := f.s.products[productID]
		if p != nil && total.LessThanOrEqual(p.ReorderPoint) {
			out = append(out, repository.ProductStockLevel{Product: *p, TotalQuantity: total})
		}
	}
	return out, nil
}

func (f *fakeStockRepo) ListOverstocked() ([]repository.ProductStockLevel, error) {
	var out []repository.ProductStockLevel
	for productID, total := range f.totalsByProduct() {
		p := f.s.products[productID]
		if p != nil && p.MaximumLevel.GreaterThan(decimal.Zero) && total.GreaterThanOrEqual(p.MaximumLevel) {
			out = append(out, repository.ProductStockLevel{Product: *p, TotalQuantity: total})
		}
	}
	return out, nil
}

func (f *fakeStockRepo) ListExpiring(now time.Time, window time.Duration) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	for _, r := range f.s.records {
		if r.Quantity.GreaterThan(decimal.Zero) && r.IsExpiringSoon(now, window) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) ListExpired(now time.Time) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	for _, r := range f.s.records {
		if r.Quantity.GreaterThan(decimal.Zero) && r.IsExpired(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) Valuation() (*repository.ValuationTotals, error) {
	totals := &repository.ValuationTotals{CostValuation: decimal.Zero, SellingValuation: decimal.Zero}
	for _, r := range f.s.records {
		totals.CostValuation = totals.CostValuation.Add(r.Quantity.Mul(r.CostPerUnit))
		if p := f.s.products[r.ProductID]; p != nil {
			totals.SellingValuation = totals.SellingValuation.Add(r.Quantity.Mul(p.Price))
		}
	}
	return totals, nil
}

func sameBatch(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ── MovementRepository fake ──────────────────────────────────────────────────

type fakeMovementRepo struct{ s *memStore }

var _ repository.MovementRepository = (*fakeMovementRepo)(nil)

func (f *fakeMovementRepo) Create(m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	f.s.movements = append(f.s.movements, m)
	return nil
}

func (f *fakeMovementRepo) GetByID(id string) (*entity.Movement, error) {
	for _, m := range f.s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return f.list(func(m *entity.Movement) bool { return m.ProductID == productID }, from, to, limit, offset)
}

func (f *fakeMovementRepo) ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return f.list(func(m *entity.Movement) bool {
		return (m.LocationFrom != nil && *m.LocationFrom == location) ||
			(m.LocationTo != nil && *m.LocationTo == location)
	}, from, to, limit, offset)
}

func (f *fakeMovementRepo) list(match func(*entity.Movement) bool, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range f.s.movements {
		if !match(m) {
			continue
		}
		if from != nil && m.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && m.OccurredAt.After(*to) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── ProductRepository fake ───────────────────────────────────────────────────

type fakeProductRepo struct{ s *memStore }

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func (f *fakeProductRepo) Create(p *entity.Product) error {
	f.s.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return f.s.products[id], nil
}

func (f *fakeProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range f.s.products {
		if strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) Update(p *entity.Product) error {
	f.s.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range f.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── TxRunner fake ────────────────────────────────────────────────────────────

type fakeTxRunner struct{ s *memStore }

var _ ledger.TxRunner = (*fakeTxRunner)(nil)

// Run ejecuta fn sobre el estado compartido; si falla, restaura el snapshot
// previo (rollback).
func (t *fakeTxRunner) Run(_ context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRecordRepository,
	productRepo repository.ProductRepository,
) error) error {
	snap := t.s.snapshot()
	err := fn(&fakeMovementRepo{t.s}, &fakeStockRepo{t.s}, &fakeProductRepo{t.s})
	if err != nil {
		t.s.restore(snap)
	}
	return err
}

// ── Sinks fake ───────────────────────────────────────────────────────────────

type fakeAudit struct{ entries []ledger.AuditEntry }

func (f *fakeAudit) Record(_ context.Context, e ledger.AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeInvalidator struct{ calls []string }

func (f *fakeInvalidator) Invalidate(_ context.Context, scope, key string) error {
	f.calls = append(f.calls, scope+":"+key)
	return nil
}
