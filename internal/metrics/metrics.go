// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証ゲートやバックエンドクライアントから利用する。
type MetricsCollector interface {
	RecordSignIn(provider string, result string)
	RecordGateDecision(state string)
	RecordRoleResolution(path string)
	RecordReattachment(outcome string)
	RecordBackendRequest(method string, statusCode int, duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIns         *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	roleResolutions *prometheus.CounterVec
	reattachments   *prometheus.CounterVec
	backendStatus   *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemed_sign_in_total",
			Help: "プロバイダー・結果別のサインイン試行数",
		}, []string{"provider", "result"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemed_gate_decision_total",
			Help: "認証ゲートの判定結果別の件数",
		}, []string{"state"}),
		roleResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemed_role_resolution_total",
			Help: "ロール解決の経路別の件数（primary, fallback, empty）",
		}, []string{"path"}),
		reattachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemed_reattachment_total",
			Help: "セッション再接続の結果別の件数",
		}, []string{"outcome"}),
		backendStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemed_backend_status_total",
			Help: "バックエンドのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telemed_backend_latency_seconds",
			Help:    "バックエンド呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemed_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.gateDecisions,
		c.roleResolutions,
		c.reattachments,
		c.backendStatus,
		c.backendLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordSignIn はサインイン試行を記録する。
func (c *Collector) RecordSignIn(provider string, result string) {
	c.signIns.WithLabelValues(provider, result).Inc()
}

// RecordGateDecision は認証ゲートの判定を記録する。
func (c *Collector) RecordGateDecision(state string) {
	c.gateDecisions.WithLabelValues(state).Inc()
}

// RecordRoleResolution はロール解決の経路を記録する。
func (c *Collector) RecordRoleResolution(path string) {
	c.roleResolutions.WithLabelValues(path).Inc()
}

// RecordReattachment はセッション再接続の結果を記録する。
func (c *Collector) RecordReattachment(outcome string) {
	c.reattachments.WithLabelValues(outcome).Inc()
}

// RecordBackendRequest はバックエンド呼び出しのステータスとレイテンシを記録する。
// statusCodeが0の場合は通信エラーとして扱い、ステータスは記録しない。
func (c *Collector) RecordBackendRequest(method string, statusCode int, duration time.Duration) {
	if statusCode > 0 {
		c.backendStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	}
	c.backendLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを必要としないコマンドやテストで利用する。
type NopCollector struct{}

func (NopCollector) RecordSignIn(string, string)                     {}
func (NopCollector) RecordGateDecision(string)                       {}
func (NopCollector) RecordRoleResolution(string)                     {}
func (NopCollector) RecordReattachment(string)                       {}
func (NopCollector) RecordBackendRequest(string, int, time.Duration) {}
func (NopCollector) RecordSessionsCleaned(int64)                     {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
