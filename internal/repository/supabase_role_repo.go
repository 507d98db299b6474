package repository

import (
	"context"
	"fmt"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

const userRolesTable = "user_roles"

// SupabaseRoleRepo はSupabaseのuser_rolesテーブルを使用したロールリポジトリ。
// 行レベルセキュリティの評価はClientに紐付いたトークンで行われる。
type SupabaseRoleRepo struct {
	client *supabase.Client
}

// NewSupabaseRoleRepo はSupabaseRoleRepoを生成する。
func NewSupabaseRoleRepo(client *supabase.Client) *SupabaseRoleRepo {
	return &SupabaseRoleRepo{client: client}
}

// ListRoles はユーザーに割り当てられたロール名を返す。
func (r *SupabaseRoleRepo) ListRoles(ctx context.Context, userID string) ([]string, error) {
	var rows []model.RoleAssignment
	err := r.client.Select(ctx, userRolesTable, supabase.Query{
		Columns: "role",
		Filters: []supabase.Filter{supabase.Eq("user_id", userID)},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	roles := make([]string, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}
	return roles, nil
}

// Grant はユーザーにロールを付与する。既に付与済みの場合は何もしない。
func (r *SupabaseRoleRepo) Grant(ctx context.Context, userID, role string) error {
	err := r.client.Upsert(ctx, userRolesTable, "user_id,role",
		model.RoleAssignment{UserID: userID, Role: role})
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoleRepository = (*SupabaseRoleRepo)(nil)
