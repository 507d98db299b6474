// Package session はリクエストをまたいで保持されるSession Recordと、その永続化を提供する。
package session

import (
	"github.com/dhi/telemed/internal/model"
)

// Record はセッションごとに保持される状態。
// キーは固定であり、サインアウト時には全て破棄される。
type Record struct {
	// Identity は認証済みの利用者。nilの場合は未認証。
	Identity *model.Identity `json:"identity,omitempty"`
	// AccessToken, RefreshToken は委譲認証のトークンペア。ローカル認証では空。
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// Roles はキャッシュされたロール集合。nilは未解決を表す。
	Roles model.RoleSet `json:"roles"`
	// Flash は次のレンダリングで一度だけ表示するメッセージ。
	Flash string `json:"flash,omitempty"`
}

// HasTokens はトークンペアの両方を保持しているかを返す。
func (r *Record) HasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// IsEmpty は保存すべき状態を持たないかを返す。
func (r *Record) IsEmpty() bool {
	return r.Identity == nil && r.AccessToken == "" && r.RefreshToken == "" &&
		r.Roles == nil && r.Flash == ""
}

// SignIn はサインイン結果を反映し、キャッシュ済みロールを無効化する。
func (r *Record) SignIn(auth *model.AuthSession) {
	identity := auth.Identity
	r.Identity = &identity
	r.AccessToken = auth.AccessToken
	r.RefreshToken = auth.RefreshToken
	r.Roles = nil
}

// Clear は全ての状態を破棄する。
func (r *Record) Clear() {
	*r = Record{}
}

// TakeFlash はFlashメッセージを取り出して消去する。
func (r *Record) TakeFlash() string {
	msg := r.Flash
	r.Flash = ""
	return msg
}
