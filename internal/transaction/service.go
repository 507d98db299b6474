// Package transaction は病院ごとの日次Transaction管理のドメインロジックを提供する。
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
)

// CacheInvalidator はデータ変更後に集計用キャッシュを破棄する。
type CacheInvalidator interface {
	Invalidate()
}

// Input はTransactionの作成・更新フォームの入力値。
type Input struct {
	HospitalID        string
	Date              string
	TransactionsCount int
	RidersActive      int
}

// Entry は一覧表示用に病院名を付与したTransaction。
type Entry struct {
	*model.Transaction
	HospitalName string
}

// Service はTransactionの一覧・作成・更新・削除・CSV取り込みを提供する。
type Service struct {
	txs       repository.TransactionRepository
	hospitals repository.HospitalRepository
	cache     CacheInvalidator
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(txs repository.TransactionRepository, hospitals repository.HospitalRepository, cache CacheInvalidator) *Service {
	return &Service{
		txs:       txs,
		hospitals: hospitals,
		cache:     cache,
	}
}

// List はTransaction一覧を病院名付きで返す。病院が見つからない場合、病院名は空になる。
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	txs, err := s.txs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Transaction一覧の取得に失敗しました: %w", err)
	}
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("病院一覧の取得に失敗しました: %w", err)
	}

	names := make(map[string]string, len(hospitals))
	for _, h := range hospitals {
		names[h.ID] = h.Name
	}

	entries := make([]Entry, len(txs))
	for i, tx := range txs {
		entries[i] = Entry{Transaction: tx, HospitalName: names[tx.HospitalID]}
	}
	return entries, nil
}

// Get は指定IDのTransactionを返す。存在しない場合はTRANSACTION_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Transaction, error) {
	tx, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Transactionの取得に失敗しました: %w", err)
	}
	if tx == nil {
		return nil, model.NewTransactionNotFoundError(id)
	}
	return tx, nil
}

// Create は入力値とRiderキャパシティを検証してTransactionを作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Transaction, error) {
	tx, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	tx.ID = uuid.New().String()

	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("Transactionの作成に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return tx, nil
}

// Update は既存のTransactionを更新する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Transaction, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	tx, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	tx.ID = id

	if err := s.txs.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("Transactionの更新に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return tx, nil
}

// Delete はTransactionを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.txs.Delete(ctx, id); err != nil {
		return fmt.Errorf("Transactionの削除に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// build は入力値を検証してTransactionを組み立てる。
func (s *Service) build(ctx context.Context, in Input) (*model.Transaction, error) {
	// 1. 数値と日付の検証
	if in.TransactionsCount < 0 || in.RidersActive < 0 {
		return nil, model.NewInvalidInputError("จำนวนต้องไม่ติดลบ")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, model.NewInvalidInputError("รูปแบบวันที่ต้องเป็น YYYY-MM-DD")
	}

	// 2. 病院の存在確認
	h, err := s.hospitals.FindByID(ctx, in.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("病院の取得に失敗しました: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError(in.HospitalID)
	}

	// 3. Riderキャパシティの検証
	if !withinCapacity(h, in.RidersActive) {
		return nil, model.NewRiderCapacityExceededError("", in.RidersActive)
	}

	return &model.Transaction{
		HospitalID:        h.ID,
		Date:              date,
		TransactionsCount: in.TransactionsCount,
		RidersActive:      in.RidersActive,
	}, nil
}

// withinCapacity はアクティブRider数が病院のキャパシティ以下かを返す。
// 病院が不明な場合は検証できないため許可する。
func withinCapacity(h *model.Hospital, ridersActive int) bool {
	if h == nil {
		return true
	}
	return ridersActive <= h.RidersCount
}

// dateLayouts は受け付ける日付の書式。
var dateLayouts = []string{model.DateLayout, "2006/01/02", "2006-1-2", "2006/1/2"}

// parseDate は日付文字列を解析し、"2006-01-02"形式に正規化する。
func parseDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date: %q", s)
}
