package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
)

// 既定の管理者アカウント。起動後に運用側でパスワードを変更する前提。
const (
	DefaultAdminUsername = "telemed"
	DefaultAdminPassword = "Telemed@DHI"
)

// Provisioner は既定の管理者アカウントを用意する。
type Provisioner struct {
	admins repository.AdminRepository
	roles  repository.RoleRepository
}

// NewProvisioner はProvisionerを生成する。
func NewProvisioner(admins repository.AdminRepository, roles repository.RoleRepository) *Provisioner {
	return &Provisioner{admins: admins, roles: roles}
}

// EnsureDefaultAdmin は指定ユーザー名の管理者が存在しなければ作成し、adminロールを付与する。
// 何度実行しても管理者は1件のみとなる。
func (p *Provisioner) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		username = DefaultAdminUsername
	}
	if password == "" {
		password = DefaultAdminPassword
	}

	// 1. 既存の管理者を検索
	admin, err := p.admins.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up default admin: %w", err)
	}

	// 2. 存在しなければ作成
	if admin == nil {
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		now := time.Now()
		admin = &model.Admin{
			ID:           uuid.New().String(),
			Username:     username,
			PasswordHash: hash,
			CreatedAt:    &now,
		}
		if err := p.admins.Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create default admin: %w", err)
		}
		slog.Info("default admin provisioned", slog.String("username", username))
	}

	// 3. adminロールを付与（付与済みなら何もしない）
	if err := p.roles.Grant(ctx, admin.ID, model.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	return nil
}
