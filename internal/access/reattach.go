// Package access は保護されたページの認証ゲートを提供する。
// セッション再接続、ロール解決、ロールによるアクセス判定を含む。
package access

import (
	"context"
	"log/slog"

	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/metrics"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/session"
	"github.com/dhi/telemed/internal/supabase"
)

// Outcome はセッション再接続の結果。
type Outcome int

const (
	// NoTokens は保存済みトークンがなく、何も行わなかったことを表す。
	NoTokens Outcome = iota
	// Restored はバックエンドのセッションが復元されたことを表す。
	Restored
	// Failed は復元に失敗したことを表す。
	Failed
)

// String はメトリクスラベル用の名前を返す。
func (o Outcome) String() string {
	switch o {
	case Restored:
		return "restored"
	case Failed:
		return "failed"
	default:
		return "no_tokens"
	}
}

// Restoration はセッション再接続の結果と、リクエストスコープのバックエンドClient。
type Restoration struct {
	Outcome Outcome
	// Session はRestoredの場合の認証セッション。トークンはローテーション後の値。
	Session *model.AuthSession
	// Client はこのリクエストで使用するClient。Restoredの場合は利用者のトークンで認可される。
	Client *supabase.Client
	// Err はFailedの場合の原因。ログ出力用。
	Err error
}

// Reattacher は保存済みのトークンペアをリクエストスコープのClientに再接続する。
type Reattacher struct {
	provider auth.Provider
	base     *supabase.Client
	metrics  metrics.MetricsCollector
}

// NewReattacher はReattacherを生成する。baseは匿名キーのClient。
func NewReattacher(provider auth.Provider, base *supabase.Client, collector metrics.MetricsCollector) *Reattacher {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Reattacher{provider: provider, base: base, metrics: collector}
}

// Restore はSession Recordのトークンペアからバックエンドのセッションを復元する。
// トークンがない場合はプロバイダーを呼び出さず、Recordも変更しない。
// 失敗はFailedとして返し、エラーとして扱わない。
func (r *Reattacher) Restore(ctx context.Context, rec *session.Record) Restoration {
	if !rec.HasTokens() {
		r.metrics.RecordReattachment(NoTokens.String())
		return Restoration{Outcome: NoTokens, Client: r.base}
	}

	restored, err := r.provider.Restore(ctx, rec.AccessToken, rec.RefreshToken)
	if err != nil {
		r.metrics.RecordReattachment(Failed.String())
		slog.Warn("session reattachment failed",
			slog.String("provider", r.provider.Name()),
			slog.String("error", err.Error()),
		)
		return Restoration{Outcome: Failed, Client: r.base, Err: err}
	}

	r.metrics.RecordReattachment(Restored.String())
	return Restoration{
		Outcome: Restored,
		Session: restored,
		Client:  r.base.WithAccessToken(restored.AccessToken),
	}
}
