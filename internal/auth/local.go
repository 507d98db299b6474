package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/repository"
)

// errNoTokens はローカル認証がトークンを発行しないことを表す。
var errNoTokens = errors.New("local provider does not issue tokens")

// dummyHash はユーザーが存在しない場合にも照合時間を揃えるためのハッシュ。
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("telemed-dummy-password")
	return h
})

// LocalProvider はadminsテーブルのbcryptハッシュで認証するプロバイダー。
type LocalProvider struct {
	admins repository.AdminRepository
}

// NewLocalProvider はLocalProviderを生成する。
func NewLocalProvider(admins repository.AdminRepository) *LocalProvider {
	return &LocalProvider{admins: admins}
}

// Name はプロバイダー名を返す。
func (p *LocalProvider) Name() string {
	return ProviderLocal
}

// ValidateInput はユーザー名とパスワードが入力されているかを検証する。
func (p *LocalProvider) ValidateInput(username, password string) error {
	return validateUsernameInput(username, password)
}

// SignIn はユーザー名とパスワードで認証する。
func (p *LocalProvider) SignIn(ctx context.Context, username, password string) (*model.AuthSession, error) {
	admin, err := p.admins.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		_ = VerifyPassword(password, dummyHash())
		return nil, rejected(model.NewSignInRejectedError(""))
	}

	if err := VerifyPassword(password, admin.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, rejected(model.NewSignInRejectedError(""))
		}
		return nil, err
	}

	return &model.AuthSession{
		Identity: model.Identity{ID: admin.ID, Name: admin.Username},
	}, nil
}

// Restore はローカル認証ではトークンを発行しないため常にエラーを返す。
func (p *LocalProvider) Restore(_ context.Context, _, _ string) (*model.AuthSession, error) {
	return nil, errNoTokens
}

// SignOut はローカル認証では何もしない。
func (p *LocalProvider) SignOut(_ context.Context, _ string) error {
	return nil
}

// compile-time interface check
var _ Provider = (*LocalProvider)(nil)
