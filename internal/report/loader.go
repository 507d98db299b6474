// Package report はダッシュボードの集計（フィルタ、KPI、グループ集計、グラフ、CSV）を提供する。
package report

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
)

// DefaultCacheTTL はテーブル読み込み結果のキャッシュ有効期間。
const DefaultCacheTTL = 60 * time.Second

const (
	hospitalsKey    = "hospitals"
	transactionsKey = "transactions"
)

// Loader はhospitals・transactionsテーブルの読み込み結果をテーブル単位でキャッシュする。
// データを変更した場合はInvalidateでキャッシュを破棄する。
type Loader struct {
	hospitals    repository.HospitalRepository
	transactions repository.TransactionRepository

	hospitalCache    *lru.LRU[string, []*model.Hospital]
	transactionCache *lru.LRU[string, []*model.Transaction]
}

// NewLoader はLoaderを生成する。ttlが0以下の場合はDefaultCacheTTLを使用する。
func NewLoader(hospitals repository.HospitalRepository, transactions repository.TransactionRepository, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Loader{
		hospitals:        hospitals,
		transactions:     transactions,
		hospitalCache:    lru.NewLRU[string, []*model.Hospital](1, nil, ttl),
		transactionCache: lru.NewLRU[string, []*model.Transaction](1, nil, ttl),
	}
}

// Hospitals は病院一覧を返す。
func (l *Loader) Hospitals(ctx context.Context) ([]*model.Hospital, error) {
	if cached, ok := l.hospitalCache.Get(hospitalsKey); ok {
		return cached, nil
	}
	hospitals, err := l.hospitals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hospitals: %w", err)
	}
	l.hospitalCache.Add(hospitalsKey, hospitals)
	return hospitals, nil
}

// Transactions はTransaction一覧を返す。
func (l *Loader) Transactions(ctx context.Context) ([]*model.Transaction, error) {
	if cached, ok := l.transactionCache.Get(transactionsKey); ok {
		return cached, nil
	}
	txs, err := l.transactions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	l.transactionCache.Add(transactionsKey, txs)
	return txs, nil
}

// Invalidate はキャッシュを全て破棄する。
func (l *Loader) Invalidate() {
	l.hospitalCache.Purge()
	l.transactionCache.Purge()
}
