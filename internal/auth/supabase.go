package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

// SupabaseProvider はSupabase GoTrueに認証を委譲するプロバイダー。
type SupabaseProvider struct {
	client   *supabase.Client
	verifier *supabase.TokenVerifier
}

// NewSupabaseProvider はSupabaseProviderを生成する。
// verifierが署名検証可能な場合、有効なアクセストークンはネットワーク呼び出しなしで復元する。
func NewSupabaseProvider(client *supabase.Client, verifier *supabase.TokenVerifier) *SupabaseProvider {
	if verifier == nil {
		verifier = supabase.NewTokenVerifier("")
	}
	return &SupabaseProvider{client: client, verifier: verifier}
}

// Name はプロバイダー名を返す。
func (p *SupabaseProvider) Name() string {
	return ProviderSupabase
}

// ValidateInput はメールアドレスの形式とパスワードの入力を検証する。
func (p *SupabaseProvider) ValidateInput(email, password string) error {
	return validateEmailInput(email, password)
}

// SignIn はメールアドレスとパスワードでGoTrueにサインインする。
// 拒否された場合はバックエンドのメッセージをそのまま返す。再試行はしない。
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	session, err := p.client.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		var apiErr *supabase.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return nil, rejected(model.NewSignInRejectedError(apiErr.Message))
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return toAuthSession(session), nil
}

// Restore は保存済みのトークンペアから認証セッションを復元する。
// 1. 署名検証できる場合は、有効期限内のトークンをそのまま使う
// 2. GoTrueにユーザー情報を問い合わせる
// 3. アクセストークンが失効していればリフレッシュトークンで更新する
func (p *SupabaseProvider) Restore(ctx context.Context, accessToken, refreshToken string) (*model.AuthSession, error) {
	if p.verifier.CanVerify() {
		if claims, err := p.verifier.Parse(accessToken); err == nil && claims.Subject != "" {
			restored := &model.AuthSession{
				Identity:     model.Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Email},
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
			}
			if claims.ExpiresAt != nil {
				restored.ExpiresAt = claims.ExpiresAt.Time
			}
			return restored, nil
		}
	}

	user, err := p.client.GetUser(ctx, accessToken)
	if err == nil {
		return &model.AuthSession{
			Identity:     model.Identity{ID: user.ID, Email: user.Email, Name: user.Email},
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    p.tokenExpiry(accessToken),
		}, nil
	}
	if !errors.Is(err, supabase.ErrUnauthorized) || refreshToken == "" {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	session, err := p.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return toAuthSession(session), nil
}

// SignOut はGoTrueのセッションを失効させる。
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return p.client.SignOut(ctx, accessToken)
}

// tokenExpiry はアクセストークンのexpクレームを返す。読み取れない場合はゼロ値。
func (p *SupabaseProvider) tokenExpiry(accessToken string) time.Time {
	claims, err := supabase.NewTokenVerifier("").Parse(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func toAuthSession(s *supabase.Session) *model.AuthSession {
	return &model.AuthSession{
		Identity:     model.Identity{ID: s.User.ID, Email: s.User.Email, Name: s.User.Email},
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.Expiry(),
	}
}

// compile-time interface check
var _ Provider = (*SupabaseProvider)(nil)
