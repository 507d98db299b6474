package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// User はGoTrueのユーザー情報。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session はGoTrueが発行するトークンペアとユーザー情報。
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Expiry はアクセストークンの有効期限を返す。
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

func tokenQuery(grantType string) url.Values {
	return url.Values{"grant_type": {grantType}}
}

// SignInWithPassword はメールアドレスとパスワードでサインインする。
// 失敗時はバックエンドのメッセージを含む*Errorを返す。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  tokenQuery("password"),
		body:   map[string]string{"email": email, "password": password},
		bearer: c.apiKey,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession はリフレッシュトークンで新しいトークンペアを取得する。
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  tokenQuery("refresh_token"),
		body:   map[string]string{"refresh_token": refreshToken},
		bearer: c.apiKey,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser はアクセストークンに紐付くユーザーを取得する。
// トークンが無効な場合はErrUnauthorizedとして判定できるエラーを返す。
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut はアクセストークンのセッションを失効させる。
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	}, nil)
}
