package access

import "context"

type principalKey struct{}

// NewContext はPrincipalをコンテキストに格納する。
func NewContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext はコンテキストからPrincipalを取得する。
// ゲートを通過していないリクエストではnilを返す。
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
