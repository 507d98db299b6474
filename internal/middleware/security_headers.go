package middleware

import "net/http"

// chartScriptOrigin はグラフ描画ライブラリの配信元。
const chartScriptOrigin = "https://cdn.plot.ly"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// ダッシュボードのグラフはCDNのスクリプトとインラインの初期化スクリプトで描画する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy",
				"default-src 'self'; script-src 'self' 'unsafe-inline' "+chartScriptOrigin+
					"; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'")
			next.ServeHTTP(w, r)
		})
	}
}
