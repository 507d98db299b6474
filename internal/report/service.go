package report

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/dhi/telemed/internal/model"
)

// Service はキャッシュ済みのテーブルからダッシュボードの集計結果を生成する。
type Service struct {
	loader *Loader
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(loader *Loader) *Service {
	return &Service{
		loader: loader,
		now:    time.Now,
	}
}

// Dashboard はクエリパラメータから絞り込み条件を組み立てて集計する。
func (s *Service) Dashboard(ctx context.Context, q url.Values) (*Report, error) {
	hospitals, err := s.loader.Hospitals(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.loader.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	f := ParseFilter(q, s.now(), func() (time.Time, time.Time, bool) {
		return DateBounds(txs)
	})
	return Build(f, hospitals, txs), nil
}

// HospitalNames はフィルタの選択肢として病院名を昇順で返す。
func (s *Service) HospitalNames(ctx context.Context) ([]string, error) {
	hospitals, err := s.loader.Hospitals(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(hospitals))
	for _, h := range hospitals {
		if h.Name != "" && !model.Contains(names, h.Name) {
			names = append(names, h.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
