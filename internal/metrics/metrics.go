// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// リーダーボードミラーのサービス層から利用する。
type MetricsCollector interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordFetchSuccess()
	RecordFetchFailure()
	RecordParseFailure()
	RecordFetchLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHit     prometheus.Counter
	cacheMiss    prometheus.Counter
	fetchSuccess prometheus.Counter
	fetchFail    prometheus.Counter
	parseFail    prometheus.Counter
	fetchLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aocbingo_cache_hit_total",
			Help: "リーダーボードキャッシュヒットの合計数",
		}),
		cacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aocbingo_cache_miss_total",
			Help: "リーダーボードキャッシュミスの合計数",
		}),
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aocbingo_fetch_success_total",
			Help: "上流リーダーボード取得成功の合計数",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aocbingo_fetch_fail_total",
			Help: "上流リーダーボード取得失敗の合計数",
		}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aocbingo_parse_fail_total",
			Help: "リーダーボードデータ解析失敗の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aocbingo_fetch_latency_seconds",
			Help:    "上流リーダーボード取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.cacheHit,
		c.cacheMiss,
		c.fetchSuccess,
		c.fetchFail,
		c.parseFail,
		c.fetchLatency,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHit.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMiss.Inc()
}

// RecordFetchSuccess は上流取得の成功を記録する。
func (c *Collector) RecordFetchSuccess() {
	c.fetchSuccess.Inc()
}

// RecordFetchFailure は上流取得の失敗を記録する。
func (c *Collector) RecordFetchFailure() {
	c.fetchFail.Inc()
}

// RecordParseFailure はデータ解析の失敗を記録する。
func (c *Collector) RecordParseFailure() {
	c.parseFail.Inc()
}

// RecordFetchLatency は上流取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
