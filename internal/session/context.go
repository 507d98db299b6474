package session

import "context"

type contextKey struct{}

// NewContext はセッションをコンテキストに格納する。
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext はコンテキストからセッションを取得する。
// セッションミドルウェアを通過していない場合はnilを返す。
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}
