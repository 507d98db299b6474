package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// quietPaths はプローブ用のパス。成功時はdebugレベルで記録する。
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードと書き込みバイト数を記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// levelFor はステータスコードとパスからログレベルを決める。
func levelFor(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	if _, ok := quietPaths[path]; ok {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLoggingMiddleware はリクエストの構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、bytes、duration_ms、remote_ip、request_id、
// user_id（サインイン済みの場合）を含む。
// user_idはハンドラ内でのサインイン・サインアウトを反映するため、
// SessionMiddlewareの後に配置し、後続処理の完了後にセッションから読み取る。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			level := levelFor(r.URL.Path, rec.statusCode)
			if !logger.Enabled(r.Context(), level) {
				return
			}

			duration := time.Since(start)
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Int("bytes", rec.bytes),
				slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
				slog.String("remote_ip", clientIP(r)),
			}

			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}

			if userID, err := UserIDFromContext(r.Context()); err == nil && userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}
