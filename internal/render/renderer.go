package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dhi/telemed/internal/access"
	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/middleware"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages は描画可能なページ名。templates/<name>.html に対応する。
var Pages = []string{"login", "forbidden", "error", "dashboard", "hospitals", "transactions", "admins"}

// SessionSaver はFlashメッセージの消費・設定を保存するためのインターフェース。
type SessionSaver interface {
	Save(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
}

// Options はRendererの設定。
type Options struct {
	// AuthMode はサインインフォームの表示（ユーザー名かメールアドレスか）を切り替える。
	AuthMode string
	Store    SessionSaver
}

// LoginData はサインインページの描画データ。
type LoginData struct {
	Mode       string
	LoginLabel string
	Login      string
	SignedOut  bool
}

// Renderer はレイアウトとページテンプレートを組み合わせてHTMLを描画する。
type Renderer struct {
	pages    map[string]*template.Template
	store    SessionSaver
	authMode string
}

// New は埋め込みテンプレートを解析してRendererを生成する。
func New(opts Options) (*Renderer, error) {
	funcs := template.FuncMap{
		"comma":    comma,
		"contains": model.Contains,
		"join":     strings.Join,
	}

	pages := make(map[string]*template.Template, len(Pages))
	for _, name := range Pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	mode := opts.AuthMode
	if mode == "" {
		mode = auth.ProviderLocal
	}
	return &Renderer{pages: pages, store: opts.Store, authMode: mode}, nil
}

// NewView はリクエストの利用者・CSRFトークン・Flashメッセージを反映したViewを生成する。
// 描画パスはViewごとに新しく生成する。
func (r *Renderer) NewView(req *http.Request, title, nav string) *View {
	v := &View{
		Title:     title,
		Nav:       nav,
		CSRFToken: middleware.CSRFTokenFromContext(req.Context()),
		pass:      NewPass(),
	}

	// 1. ゲートを通過したリクエストはPrincipalから利用者を取得
	if p := access.FromContext(req.Context()); p != nil {
		identity := p.Identity
		v.Identity = &identity
		v.IsAdmin = p.Roles.Has(model.RoleAdmin)
	}

	// 2. Session Recordの利用者とFlashメッセージ
	if sess := session.FromContext(req.Context()); sess != nil {
		v.sess = sess
		if v.Identity == nil && sess.Record.Identity != nil {
			identity := *sess.Record.Identity
			v.Identity = &identity
			v.IsAdmin = sess.Record.Roles.Has(model.RoleAdmin)
		}
		if flash := sess.Record.TakeFlash(); flash != "" {
			v.Flash = flash
			v.flashTaken = true
		}
	}
	return v
}

// Page はページを描画する。テンプレートの実行に失敗した場合は500を返す。
func (r *Renderer) Page(w http.ResponseWriter, req *http.Request, status int, name string, v *View) {
	t, ok := r.pages[name]
	if !ok {
		slog.Error("unknown page", slog.String("page", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// 1. バッファに描画して、途中で失敗した場合に不完全なHTMLを返さない
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		slog.Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// 2. Flashメッセージを消費した場合はヘッダー送信前に保存
	if v.flashTaken && v.sess != nil && r.store != nil {
		if err := r.store.Save(req.Context(), w, v.sess); err != nil {
			slog.Error("failed to save session", slog.String("error", err.Error()))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// RenderSignIn はサインインフォームを401で描画する。
func (r *Renderer) RenderSignIn(w http.ResponseWriter, req *http.Request) {
	r.SignInPage(w, req, http.StatusUnauthorized, "", "")
}

// SignInPage はサインインフォームを描画する。errMsgは入力エラーや拒否理由。
func (r *Renderer) SignInPage(w http.ResponseWriter, req *http.Request, status int, login, errMsg string) {
	v := r.NewView(req, "เข้าสู่ระบบ", "login")
	// 未認証として描画するため、失効したIdentityは表示しない
	v.Identity = nil
	v.IsAdmin = false
	v.Error = errMsg

	data := LoginData{
		Mode:       r.authMode,
		LoginLabel: "Username",
		Login:      login,
		SignedOut:  req.URL.Query().Get("signed_out") == "1",
	}
	if r.authMode == auth.ProviderSupabase {
		data.LoginLabel = "Email"
	}
	v.Data = data
	r.Page(w, req, status, "login", v)
}

// RenderForbidden はアクセス拒否ページを403で描画する。理由は表示しない。
func (r *Renderer) RenderForbidden(w http.ResponseWriter, req *http.Request) {
	v := r.NewView(req, "ไม่มีสิทธิ์เข้าถึง", "")
	r.Page(w, req, http.StatusForbidden, "forbidden", v)
}

// RenderError はエラーページを描画する。
func (r *Renderer) RenderError(w http.ResponseWriter, req *http.Request, status int, message string) {
	v := r.NewView(req, "เกิดข้อผิดพลาด", "")
	v.Error = message
	r.Page(w, req, status, "error", v)
}

// Redirect はFlashメッセージをSession Recordに保存して303でリダイレクトする。
func (r *Renderer) Redirect(w http.ResponseWriter, req *http.Request, url, flash string) {
	if sess := session.FromContext(req.Context()); sess != nil && flash != "" && r.store != nil {
		sess.Record.Flash = flash
		if err := r.store.Save(req.Context(), w, sess); err != nil {
			slog.Error("failed to save session", slog.String("error", err.Error()))
		}
	}
	http.Redirect(w, req, url, http.StatusSeeOther)
}

// comma は整数を3桁区切りで表示する。
func comma(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// compile-time interface check
var _ access.Renderer = (*Renderer)(nil)
