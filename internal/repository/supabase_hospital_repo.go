package repository

import (
	"context"
	"fmt"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

const hospitalsTable = "hospitals"

// SupabaseHospitalRepo はSupabaseのhospitalsテーブルを使用した病院リポジトリ。
type SupabaseHospitalRepo struct {
	client *supabase.Client
}

// NewSupabaseHospitalRepo はSupabaseHospitalRepoを生成する。
func NewSupabaseHospitalRepo(client *supabase.Client) *SupabaseHospitalRepo {
	return &SupabaseHospitalRepo{client: client}
}

// List は病院を名前順で返す。
func (r *SupabaseHospitalRepo) List(ctx context.Context) ([]*model.Hospital, error) {
	var hospitals []*model.Hospital
	if err := r.client.Select(ctx, hospitalsTable, supabase.Query{Order: "name.asc"}, &hospitals); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

// FindByID は指定IDの病院を取得する。見つからない場合はnilを返す。
func (r *SupabaseHospitalRepo) FindByID(ctx context.Context, id string) (*model.Hospital, error) {
	var hospitals []*model.Hospital
	err := r.client.Select(ctx, hospitalsTable, supabase.Query{
		Filters: []supabase.Filter{supabase.Eq("id", id)},
		Limit:   1,
	}, &hospitals)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if len(hospitals) == 0 {
		return nil, nil
	}
	return hospitals[0], nil
}

// Create は病院を作成する。
func (r *SupabaseHospitalRepo) Create(ctx context.Context, hospital *model.Hospital) error {
	if err := r.client.Insert(ctx, hospitalsTable, hospital, nil); err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}
	return nil
}

// Update は病院情報を更新する。
func (r *SupabaseHospitalRepo) Update(ctx context.Context, hospital *model.Hospital) error {
	patch := map[string]any{
		"name":           hospital.Name,
		"province":       hospital.Province,
		"region":         hospital.Region,
		"site_control":   hospital.SiteControl,
		"system_type":    hospital.SystemType,
		"service_models": hospital.ServiceModels,
		"riders_count":   hospital.RidersCount,
	}
	err := r.client.Update(ctx, hospitalsTable,
		[]supabase.Filter{supabase.Eq("id", hospital.ID)}, patch, nil)
	if err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}
	return nil
}

// Delete は指定IDの病院を削除する。
func (r *SupabaseHospitalRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, hospitalsTable, []supabase.Filter{supabase.Eq("id", id)}); err != nil {
		return fmt.Errorf("failed to delete hospital: %w", err)
	}
	return nil
}

// compile-time interface check
var _ HospitalRepository = (*SupabaseHospitalRepo)(nil)
