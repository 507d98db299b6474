// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は認証済みの利用者を表す。
// ローカル認証では admins.id、委譲認証ではIdPのユーザーIDを ID に持つ。
// Name は画面表示用の名前で、ローカル認証ではユーザー名、委譲認証ではメールアドレスになる。
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AuthSession はサインイン成功時にCredential Storeから返される認証情報。
// ローカル認証ではトークンは空になる。
type AuthSession struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// HasTokens はアクセストークンとリフレッシュトークンの両方を保持しているかを返す。
func (s *AuthSession) HasTokens() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// Admin はローカル認証用の管理者アカウントを表す。
// PasswordHash はbcryptハッシュであり、平文パスワードは保持しない。
type Admin struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// RoleAssignment は user_roles テーブルの1行を表す。
type RoleAssignment struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Session はサーバー側に保存されるログインセッションを表す。
// Data にはSession RecordのJSONが格納される。
type Session struct {
	ID        string
	UserID    string
	Data      []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
