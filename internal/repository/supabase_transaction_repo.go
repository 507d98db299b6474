package repository

import (
	"context"
	"fmt"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

const transactionsTable = "transactions"

// SupabaseTransactionRepo はSupabaseのtransactionsテーブルを使用したリポジトリ。
type SupabaseTransactionRepo struct {
	client *supabase.Client
}

// NewSupabaseTransactionRepo はSupabaseTransactionRepoを生成する。
func NewSupabaseTransactionRepo(client *supabase.Client) *SupabaseTransactionRepo {
	return &SupabaseTransactionRepo{client: client}
}

// List はTransactionを日付の新しい順で返す。
func (r *SupabaseTransactionRepo) List(ctx context.Context) ([]*model.Transaction, error) {
	var txs []*model.Transaction
	err := r.client.Select(ctx, transactionsTable, supabase.Query{Order: "date.desc"}, &txs)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// FindByID は指定IDのTransactionを取得する。見つからない場合はnilを返す。
func (r *SupabaseTransactionRepo) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	var txs []*model.Transaction
	err := r.client.Select(ctx, transactionsTable, supabase.Query{
		Filters: []supabase.Filter{supabase.Eq("id", id)},
		Limit:   1,
	}, &txs)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return txs[0], nil
}

// Create はTransactionを作成する。
func (r *SupabaseTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	if err := r.client.Insert(ctx, transactionsTable, tx, nil); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateBatch は複数のTransactionを1回のリクエストで作成する。
// PostgRESTは配列の挿入を単一の文で実行するため、失敗時はいずれの行も作成されない。
func (r *SupabaseTransactionRepo) CreateBatch(ctx context.Context, txs []*model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := r.client.Insert(ctx, transactionsTable, txs, nil); err != nil {
		return fmt.Errorf("failed to create transactions: %w", err)
	}
	return nil
}

// Update はTransactionを更新する。
func (r *SupabaseTransactionRepo) Update(ctx context.Context, tx *model.Transaction) error {
	patch := map[string]any{
		"hospital_id":        tx.HospitalID,
		"date":               tx.Date,
		"transactions_count": tx.TransactionsCount,
		"riders_active":      tx.RidersActive,
	}
	err := r.client.Update(ctx, transactionsTable,
		[]supabase.Filter{supabase.Eq("id", tx.ID)}, patch, nil)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete は指定IDのTransactionを削除する。
func (r *SupabaseTransactionRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, transactionsTable, []supabase.Filter{supabase.Eq("id", id)}); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TransactionRepository = (*SupabaseTransactionRepo)(nil)
