package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

const adminsTable = "admins"

// SupabaseAdminRepo はSupabaseのadminsテーブルを使用した管理者リポジトリ。
// password_hashを扱うためservice roleのClientで生成する。
type SupabaseAdminRepo struct {
	client *supabase.Client
}

// NewSupabaseAdminRepo はSupabaseAdminRepoを生成する。
func NewSupabaseAdminRepo(client *supabase.Client) *SupabaseAdminRepo {
	return &SupabaseAdminRepo{client: client}
}

// List は管理者をユーザー名順で返す。password_hashは含まない。
func (r *SupabaseAdminRepo) List(ctx context.Context) ([]*model.Admin, error) {
	var admins []*model.Admin
	err := r.client.Select(ctx, adminsTable, supabase.Query{
		Columns: "id,username,created_at",
		Order:   "username.asc",
	}, &admins)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// FindByUsername はユーザー名（大文字小文字を区別しない）で管理者を検索する。
// 見つからない場合はnilを返す。
// adminsは少数のため全件取得して比較する。
func (r *SupabaseAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admins []*model.Admin
	err := r.client.Select(ctx, adminsTable, supabase.Query{
		Columns: "id,username,password_hash,created_at",
		Order:   "created_at.asc",
	}, &admins)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	for _, a := range admins {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return nil, nil
}

// Create は管理者を作成する。
func (r *SupabaseAdminRepo) Create(ctx context.Context, admin *model.Admin) error {
	if err := r.client.Insert(ctx, adminsTable, admin, nil); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// UpdatePassword はパスワードハッシュを更新する。
func (r *SupabaseAdminRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	err := r.client.Update(ctx, adminsTable,
		[]supabase.Filter{supabase.Eq("id", id)},
		map[string]string{"password_hash": passwordHash}, nil)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	return nil
}

// Delete は指定IDの管理者を削除する。
func (r *SupabaseAdminRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, adminsTable, []supabase.Filter{supabase.Eq("id", id)}); err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AdminRepository = (*SupabaseAdminRepo)(nil)
