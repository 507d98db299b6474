package render

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/session"
)

// View はテンプレートに渡す描画データ。
type View struct {
	Title string
	// Nav はサイドバーで強調表示するメニュー。
	Nav       string
	Identity  *model.Identity
	IsAdmin   bool
	CSRFToken string
	// Flash は前のリクエストから引き継いだ完了メッセージ。
	Flash string
	// Error はページ上部に表示するエラーメッセージ。
	Error string
	Data  any

	pass       *Pass
	sess       *session.Session
	flashTaken bool
}

// SignOutOnce はサインアウトボタンを描画パスにつき1度だけ描画する。
// サインインしていない場合は何も描画しない。
func (v *View) SignOutOnce(location string) template.HTML {
	if v.Identity == nil {
		return ""
	}
	return v.pass.Once(location, func() template.HTML {
		var buf bytes.Buffer
		err := signOutTmpl.Execute(&buf, struct {
			Location  string
			CSRFToken string
		}{location, v.CSRFToken})
		if err != nil {
			slog.Error("failed to render sign-out control", slog.String("error", err.Error()))
			return ""
		}
		return template.HTML(buf.String())
	})
}

// DisplayName はサイドバーに表示する利用者名を返す。
func (v *View) DisplayName() string {
	if v.Identity == nil {
		return ""
	}
	if v.Identity.Email != "" {
		return v.Identity.Email
	}
	if v.Identity.Name != "" {
		return v.Identity.Name
	}
	return v.Identity.ID
}

var signOutTmpl = template.Must(template.New("signout").Parse(
	`<form method="post" action="/auth/logout" class="signout signout-{{.Location}}">` +
		`<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">` +
		`<button type="submit" id="btn_logout_{{.Location}}">Sign out</button></form>`))
