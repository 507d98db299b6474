package access

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dhi/telemed/internal/metrics"
	"github.com/dhi/telemed/internal/model"
)

// RoleSource はユーザーのロールを取得する。
// repository.RoleRepositoryの部分集合として定義する。
type RoleSource interface {
	ListRoles(ctx context.Context, userID string) ([]string, error)
}

// Resolver はIdentityのロール集合を解決する。
// まず利用者の権限で問い合わせ、失敗した場合のみservice roleで再試行する。
type Resolver struct {
	fallback    RoleSource
	adminEmails map[string]struct{}
	metrics     metrics.MetricsCollector
}

// NewResolver はResolverを生成する。
// adminEmailsが空でない場合、一覧にないメールアドレスからはadminロールを除く。
func NewResolver(fallback RoleSource, adminEmails []string, collector metrics.MetricsCollector) *Resolver {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	allow := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	return &Resolver{fallback: fallback, adminEmails: allow, metrics: collector}
}

// Resolve はロール集合を返す。両方の問い合わせが失敗した場合は空の集合を返す。
// エラーは返さない。
func (r *Resolver) Resolve(ctx context.Context, primary RoleSource, identity model.Identity) model.RoleSet {
	roles, err := primary.ListRoles(ctx, identity.ID)
	if err == nil {
		r.metrics.RecordRoleResolution("primary")
		return r.restrict(identity, model.NewRoleSet(roles...))
	}
	slog.Debug("primary role lookup failed",
		slog.String("user_id", identity.ID),
		slog.String("error", err.Error()),
	)

	roles, err = r.fallback.ListRoles(ctx, identity.ID)
	if err == nil {
		r.metrics.RecordRoleResolution("fallback")
		return r.restrict(identity, model.NewRoleSet(roles...))
	}
	slog.Warn("role lookup failed, treating as no roles",
		slog.String("user_id", identity.ID),
		slog.String("error", err.Error()),
	)

	r.metrics.RecordRoleResolution("empty")
	return model.NewRoleSet()
}

// restrict は許可リストに基づきadminロールを除く。
// メールアドレスを持たないIdentity（ローカル認証）には適用しない。
func (r *Resolver) restrict(identity model.Identity, roles model.RoleSet) model.RoleSet {
	if len(r.adminEmails) == 0 || identity.Email == "" || !roles.Has(model.RoleAdmin) {
		return roles
	}
	if _, ok := r.adminEmails[strings.ToLower(identity.Email)]; ok {
		return roles
	}
	return roles.Without(model.RoleAdmin)
}
