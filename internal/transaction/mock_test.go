package transaction

import (
	"context"

	"github.com/dhi/telemed/internal/model"
)

type mockTransactionRepo struct {
	listFn        func(ctx context.Context) ([]*model.Transaction, error)
	findByIDFn    func(ctx context.Context, id string) (*model.Transaction, error)
	createFn      func(ctx context.Context, tx *model.Transaction) error
	createBatchFn func(ctx context.Context, txs []*model.Transaction) error
	updateFn      func(ctx context.Context, tx *model.Transaction) error
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockTransactionRepo) List(ctx context.Context) ([]*model.Transaction, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) CreateBatch(ctx context.Context, txs []*model.Transaction) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, txs)
	}
	return nil
}

func (m *mockTransactionRepo) Update(ctx context.Context, tx *model.Transaction) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// hospitalTable は固定の病院一覧を返すHospitalRepository。
type hospitalTable []*model.Hospital

func (h hospitalTable) List(ctx context.Context) ([]*model.Hospital, error) {
	return h, nil
}

func (h hospitalTable) FindByID(ctx context.Context, id string) (*model.Hospital, error) {
	for _, hospital := range h {
		if hospital.ID == id {
			return hospital, nil
		}
	}
	return nil, nil
}

func (h hospitalTable) Create(ctx context.Context, hospital *model.Hospital) error { return nil }
func (h hospitalTable) Update(ctx context.Context, hospital *model.Hospital) error { return nil }
func (h hospitalTable) Delete(ctx context.Context, id string) error                { return nil }

type countingCache struct{ invalidated int }

func (c *countingCache) Invalidate() { c.invalidated++ }

func testHospitals() hospitalTable {
	return hospitalTable{
		{ID: "h1", Name: "รพ.เชียงใหม่", RidersCount: 3},
		{ID: "h2", Name: "รพ.สงขลา", RidersCount: 1},
	}
}
