// Package admin はローカル認証の管理者アカウント管理を提供する。
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
	"github.com/dhi/telemed/internal/security"
)

// Service は管理者の一覧・作成・パスワード変更・削除を提供する。
type Service struct {
	admins    repository.AdminRepository
	roles     repository.RoleRepository
	sessions  repository.SessionRepository
	sanitizer security.InputSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
// sessionsは削除・パスワード変更時に対象管理者のセッションを失効させるために使う。
func NewService(admins repository.AdminRepository, roles repository.RoleRepository, sessions repository.SessionRepository, sanitizer security.InputSanitizer) *Service {
	return &Service{
		admins:    admins,
		roles:     roles,
		sessions:  sessions,
		sanitizer: sanitizer,
	}
}

// List は管理者一覧を返す。パスワードハッシュは含まない。
func (s *Service) List(ctx context.Context) ([]*model.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("管理者一覧の取得に失敗しました: %w", err)
	}
	return admins, nil
}

// Create は管理者を作成し、adminロールを付与する。
// ユーザー名は大文字小文字を区別せず一意とする。
func (s *Service) Create(ctx context.Context, username, password string) (*model.Admin, error) {
	// 1. 入力値の検証
	username = s.sanitizer.Text(username)
	if username == "" || password == "" {
		return nil, model.NewMissingCredentialsError()
	}

	// 2. 重複チェック
	existing, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("管理者の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError()
	}

	// 3. パスワードをハッシュ化して作成
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a := &model.Admin{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    &now,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("管理者の作成に失敗しました: %w", err)
	}

	// 4. adminロールを付与
	if err := s.roles.Grant(ctx, a.ID, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("adminロールの付与に失敗しました: %w", err)
	}

	a.PasswordHash = ""
	return a, nil
}

// ChangePassword は指定IDの管理者のパスワードを変更し、既存のセッションを失効させる。
func (s *Service) ChangePassword(ctx context.Context, id, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return model.NewInvalidInputError("กรุณากรอกรหัสผ่านใหม่")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}
	if err := s.sessions.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("セッションの失効に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの管理者を削除する。
// セッションにはロールがキャッシュされているため、同じユーザーのセッションも削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.admins.Delete(ctx, id); err != nil {
		return fmt.Errorf("管理者の削除に失敗しました: %w", err)
	}
	if err := s.sessions.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("セッションの失効に失敗しました: %w", err)
	}
	return nil
}
