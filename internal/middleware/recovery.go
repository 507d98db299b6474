package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// 500レスポンスを返すミドルウェアを生成する。
// showDiagnosticsがtrueの場合はpanicの内容とスタックトレースをページに表示する。
func NewRecoveryMiddleware(showDiagnostics bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := string(debug.Stack())
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", stack),
					)
					if showDiagnostics {
						w.Header().Set("Content-Type", "text/plain; charset=utf-8")
						w.WriteHeader(http.StatusInternalServerError)
						fmt.Fprintf(w, "panic: %v\n\n%s", rec, stack)
						return
					}
					WriteInternalError(w, r)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
