// Package supabase はSupabase（PostgREST + GoTrue）のRESTクライアントを提供する。
// テーブル操作は /rest/v1、認証は /auth/v1 を利用する。
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dhi/telemed/internal/metrics"
)

// defaultTimeout はバックエンド呼び出し1回あたりのデフォルトタイムアウト。
const defaultTimeout = 10 * time.Second

// ErrUnauthorized はバックエンドが認証・認可エラー（401/403）を返したことを表す。
var ErrUnauthorized = errors.New("supabase: unauthorized")

// Error はバックエンドが返したエラーレスポンスを表す。
type Error struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// Is は401/403をErrUnauthorizedとして扱う。
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Options はClient生成時の設定。
type Options struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
	Metrics    metrics.MetricsCollector
}

// Client はSupabaseのRESTクライアント。
// APIKeyはapikeyヘッダーとして常に送信し、Authorizationにはアクセストークン
// （未設定の場合はAPIKey）を送信する。
// Clientはイミュータブルであり、WithAccessTokenはリクエストスコープのコピーを返す。
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	metrics     metrics.MetricsCollector
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.URL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.metrics == nil {
		c.metrics = metrics.NopCollector{}
	}
	return c
}

// WithAccessToken は指定のアクセストークンで認可されたClientのコピーを返す。
// 元のClientは変更しない。
func (c *Client) WithAccessToken(accessToken string) *Client {
	cp := *c
	cp.accessToken = accessToken
	return &cp
}

// AccessToken はClientに紐付いたアクセストークンを返す。
func (c *Client) AccessToken() string {
	return c.accessToken
}

// bearer はAuthorizationヘッダーに設定するトークンを返す。
func (c *Client) bearer() string {
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.apiKey
}

// request はバックエンドへの1回の呼び出しを表す。
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	bearer  string
}

// do はリクエストを実行し、2xxの場合はレスポンスをoutにデコードする。
// outがnilの場合はレスポンスボディを読み捨てる。
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	bearer := r.bearer
	if bearer == "" {
		bearer = c.bearer()
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordBackendRequest(r.method, 0, time.Since(start))
		c.logger.Warn("バックエンドの呼び出しに失敗しました",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("バックエンドの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendRequest(r.method, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// errorMessage はPostgREST/GoTrueのエラーボディからメッセージを取り出す。
// 既知のフィールドがない場合はボディをそのまま返す。
func errorMessage(data []byte) string {
	var body struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(data))
}
