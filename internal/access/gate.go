package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dhi/telemed/internal/metrics"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/session"
	"github.com/dhi/telemed/internal/supabase"
)

// State は認証ゲートの判定結果。
type State int

const (
	// Unauthenticated は利用者が特定できない状態。サインインフォームを表示する。
	Unauthenticated State = iota
	// AuthenticatedUnauthorized は認証済みだが必要なロールを持たない状態。
	AuthenticatedUnauthorized
	// AuthenticatedAuthorized はページの表示を許可された状態。
	AuthenticatedAuthorized
)

// String はメトリクスラベル用の名前を返す。
func (s State) String() string {
	switch s {
	case AuthenticatedUnauthorized:
		return "unauthorized"
	case AuthenticatedAuthorized:
		return "authorized"
	default:
		return "unauthenticated"
	}
}

// Principal は認可済みリクエストの利用者情報。
type Principal struct {
	Identity model.Identity
	Roles    model.RoleSet
	// Client は利用者の権限で認可されたリクエストスコープのClient。
	Client *supabase.Client
}

// Decision はEvaluateの結果。
type Decision struct {
	State     State
	Principal *Principal
	// Dirty はSession Recordが変更され、保存が必要であることを表す。
	Dirty bool
}

// Renderer はゲートで処理が止まった場合のページを描画する。
type Renderer interface {
	// RenderSignIn はサインインフォームを401で描画する。
	RenderSignIn(w http.ResponseWriter, r *http.Request)
	// RenderForbidden はアクセス拒否ページを403で描画する。理由は表示しない。
	RenderForbidden(w http.ResponseWriter, r *http.Request)
}

// SessionSaver はSession Recordの保存に必要なインターフェース。
type SessionSaver interface {
	Save(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
}

// RoleSourceFactory はリクエストスコープのClientからロールの取得元を生成する。
type RoleSourceFactory func(client *supabase.Client) RoleSource

// Gate は保護されたページの前段で認証状態とロールを判定する。
type Gate struct {
	reattacher *Reattacher
	resolver   *Resolver
	roleSource RoleSourceFactory
	store      SessionSaver
	renderer   Renderer
	metrics    metrics.MetricsCollector
}

// NewGate はGateを生成する。
func NewGate(
	reattacher *Reattacher,
	resolver *Resolver,
	roleSource RoleSourceFactory,
	store SessionSaver,
	renderer Renderer,
	collector metrics.MetricsCollector,
) *Gate {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Gate{
		reattacher: reattacher,
		resolver:   resolver,
		roleSource: roleSource,
		store:      store,
		renderer:   renderer,
		metrics:    collector,
	}
}

// Evaluate はSession Recordを判定し、必要に応じてRecordを更新する。
// requiredの全ロールを保持している場合のみ許可する。
func (g *Gate) Evaluate(ctx context.Context, rec *session.Record, required []string) Decision {
	var d Decision

	// 1. セッション再接続（常に実行）
	restoration := g.reattacher.Restore(ctx, rec)

	// 2. 再接続結果をRecordに反映
	switch restoration.Outcome {
	case Restored:
		restored := restoration.Session
		if rec.Identity == nil || rec.Identity.ID != restored.Identity.ID {
			identity := restored.Identity
			rec.Identity = &identity
			rec.Roles = nil
			d.Dirty = true
		}
		if rec.AccessToken != restored.AccessToken || rec.RefreshToken != restored.RefreshToken {
			rec.AccessToken = restored.AccessToken
			rec.RefreshToken = restored.RefreshToken
			d.Dirty = true
		}
	case Failed:
		// 通信障害や5xxではトークンを残し、このリクエストのみ未認証として扱う
		if transient(restoration.Err) {
			d.State = Unauthenticated
			return d
		}
		// バックエンドに拒否されたセッションは破棄する
		rec.Identity = nil
		rec.AccessToken = ""
		rec.RefreshToken = ""
		rec.Roles = nil
		d.Dirty = true
	}

	// 3. Identityがなければ未認証
	if rec.Identity == nil {
		d.State = Unauthenticated
		return d
	}

	// 4. ロールが未解決なら一度だけ解決してキャッシュする
	if rec.Roles == nil {
		rec.Roles = g.resolver.Resolve(ctx, g.roleSource(restoration.Client), *rec.Identity)
		d.Dirty = true
	}

	// 5. 必要なロールを満たさなければアクセス拒否
	if !rec.Roles.ContainsAll(required) {
		d.State = AuthenticatedUnauthorized
		return d
	}

	// 6. 許可
	d.State = AuthenticatedAuthorized
	d.Principal = &Principal{
		Identity: *rec.Identity,
		Roles:    rec.Roles,
		Client:   restoration.Client,
	}
	return d
}

// Require はrequiredの全ロールを要求するミドルウェアを返す。
// ロールを指定しない場合は認証済みであることのみを要求する。
// 未認証・権限不足の場合は後続のハンドラーを呼び出さない。
func (g *Gate) Require(required ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil {
				sess = &session.Session{}
			}

			d := g.Evaluate(r.Context(), &sess.Record, required)
			if d.Dirty {
				if err := g.store.Save(r.Context(), w, sess); err != nil {
					slog.Error("failed to save session",
						slog.String("error", err.Error()),
					)
				}
			}
			g.metrics.RecordGateDecision(d.State.String())

			switch d.State {
			case Unauthenticated:
				g.renderer.RenderSignIn(w, r)
				return
			case AuthenticatedUnauthorized:
				g.renderer.RenderForbidden(w, r)
				return
			}

			ctx := NewContext(r.Context(), d.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// transient はエラーがバックエンドによる拒否（4xx）ではないことを判定する。
func transient(err error) bool {
	var apiErr *supabase.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
