// Package hospital は病院マスタ管理のドメインロジックを提供する。
package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
	"github.com/dhi/telemed/internal/security"
)

// CacheInvalidator はデータ変更後に集計用キャッシュを破棄する。
type CacheInvalidator interface {
	Invalidate()
}

// Input は病院の作成・更新フォームの入力値。
// 地域（Region）は県から自動的に決定するため含まない。
type Input struct {
	Name          string
	Province      string
	SiteControl   string
	SystemType    string
	ServiceModels []string
	RidersCount   int
}

// Service は病院の一覧・作成・更新・削除を提供する。
type Service struct {
	repo      repository.HospitalRepository
	sanitizer security.InputSanitizer
	cache     CacheInvalidator
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.HospitalRepository, sanitizer security.InputSanitizer, cache CacheInvalidator) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		cache:     cache,
	}
}

// List は病院一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.Hospital, error) {
	hospitals, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("病院一覧の取得に失敗しました: %w", err)
	}
	return hospitals, nil
}

// Get は指定IDの病院を返す。存在しない場合はHOSPITAL_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Hospital, error) {
	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("病院の取得に失敗しました: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError(id)
	}
	return h, nil
}

// Create は入力値を検証して病院を作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Hospital, error) {
	h, err := s.build(in)
	if err != nil {
		return nil, err
	}
	h.ID = uuid.New().String()

	if err := s.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("病院の作成に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return h, nil
}

// Update は入力値を検証して既存の病院を更新する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Hospital, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	h, err := s.build(in)
	if err != nil {
		return nil, err
	}
	h.ID = id

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("病院の更新に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return h, nil
}

// Delete は病院を削除する。紐付くTransactionはデータベース側で削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("病院の削除に失敗しました: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// build は入力値を検証し、地域を補完した病院を返す。
func (s *Service) build(in Input) (*model.Hospital, error) {
	name := s.sanitizer.Text(in.Name)
	if name == "" {
		return nil, model.NewInvalidInputError("กรุณากรอกชื่อโรงพยาบาล")
	}

	province := s.sanitizer.Text(in.Province)
	if _, ok := model.ProvinceRegions[province]; !ok {
		return nil, model.NewInvalidInputError("กรุณาเลือกจังหวัด")
	}
	if !model.Contains(model.SiteControlChoices, in.SiteControl) {
		return nil, model.NewInvalidInputError("กรุณาเลือก SiteControl (ทีม)")
	}
	if !model.Contains(model.SystemChoices, in.SystemType) {
		return nil, model.NewInvalidInputError("กรุณาเลือกระบบที่ใช้")
	}

	serviceModels := []string{}
	for _, m := range in.ServiceModels {
		if !model.Contains(model.ServiceModelChoices, m) {
			return nil, model.NewInvalidInputError("โมเดลบริการไม่ถูกต้อง")
		}
		if !model.Contains(serviceModels, m) {
			serviceModels = append(serviceModels, m)
		}
	}

	if in.RidersCount < 0 {
		return nil, model.NewInvalidInputError("จำนวน Rider ต้องไม่ติดลบ")
	}

	return &model.Hospital{
		Name:          name,
		Province:      province,
		Region:        model.RegionForProvince(province),
		SiteControl:   in.SiteControl,
		SystemType:    in.SystemType,
		ServiceModels: serviceModels,
		RidersCount:   in.RidersCount,
	}, nil
}
