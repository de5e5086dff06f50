package middleware

import (
	"net/http"
	"time"

	"github.com/hitoshi/schoolhub/internal/metrics"
)

// NewMetricsMiddleware はレスポンスのステータスコードと処理時間を記録するミドルウェアを返す。
// Recoveryより外側に置き、panic時の500も数える。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w, r)

			next.ServeHTTP(ww, r)

			collector.RecordHTTPStatus(statusOf(ww))
			collector.RecordRequestLatency(r.Method, time.Since(start))
		})
	}
}
