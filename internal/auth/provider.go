// Package auth はサインイン、サインアウト、セッション再接続のための認証プロバイダーを提供する。
// ローカル認証（adminsテーブル + bcrypt）と委譲認証（Supabase GoTrue）を同じインターフェースで扱う。
package auth

import (
	"context"

	"github.com/dhi/telemed/internal/model"
)

// Provider名
const (
	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

// Provider は認証プロバイダーのインターフェース。
type Provider interface {
	// Name はプロバイダー名を返す。
	Name() string
	// ValidateInput はネットワーク呼び出しの前に入力形式を検証する。
	// 不正な場合はErrInvalidInputとして判定できるエラーを返す。
	ValidateInput(login, password string) error
	// SignIn は資格情報を検証して認証セッションを返す。
	// 拒否された場合はErrInvalidCredentialsとして判定できるエラーを返す。
	SignIn(ctx context.Context, login, password string) (*model.AuthSession, error)
	// Restore は保存済みのトークンペアから認証セッションを復元する。
	// トークンがローテーションされた場合は新しいトークンを返す。
	Restore(ctx context.Context, accessToken, refreshToken string) (*model.AuthSession, error)
	// SignOut はプロバイダー側のセッションを失効させる。
	SignOut(ctx context.Context, accessToken string) error
}
