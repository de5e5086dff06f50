// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証イベント種別
const (
	AuthEventRegister = "register"
	AuthEventLogin    = "login"
)

// 認証イベントの結果
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected" // 入力不正・重複・認証情報誤り
	OutcomeError    = "error"    // 永続化層の失敗など
)

// 学校情報の変更操作
const (
	SchoolOpCreate = "create"
	SchoolOpUpdate = "update"
	SchoolOpDelete = "delete"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(method string, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordSchoolMutation(op string)
	RecordAccessDenied(op string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	authEvents      *prometheus.CounterVec
	schoolMutations *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schoolhub_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_auth_events_total",
			Help: "登録・ログインの試行数（結果別）",
		}, []string{"event", "outcome"}),
		schoolMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_school_mutations_total",
			Help: "学校情報の作成・更新・削除の成功数",
		}, []string{"op"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_access_denied_total",
			Help: "所有者以外による変更操作の拒否数",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authEvents,
		c.schoolMutations,
		c.accessDenied,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(method string, duration time.Duration) {
	c.requestLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAuthEvent は登録・ログインの結果を記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordSchoolMutation は学校情報の変更成功を記録する。
func (c *Collector) RecordSchoolMutation(op string) {
	c.schoolMutations.WithLabelValues(op).Inc()
}

// RecordAccessDenied は所有権チェックによる拒否を記録する。
func (c *Collector) RecordAccessDenied(op string) {
	c.accessDenied.WithLabelValues(op).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordRequestLatency(string, time.Duration) {}
func (Nop) RecordAuthEvent(string, string) {}
func (Nop) RecordSchoolMutation(string) {}
func (Nop) RecordAccessDenied(string) {}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = Nop{}
