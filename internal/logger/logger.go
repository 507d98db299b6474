package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options はロガーの出力設定。
type Options struct {
	// Level は出力する最小レベル（debug, info, warn, error）。既定はinfo。
	Level string
	// Format は出力形式（json, text）。既定はjson。
	Format string
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	return New(w, Options{})
}

// New はOptionsに従ってslog.Loggerを生成する。
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

// ParseLevel はログレベル名をslog.Levelに変換する。不明な値はinfoとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	Configure(w, Options{})
}

// Configure はOptionsに従ったロガーをグローバルロガーとして設定し、返す。
func Configure(w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}
