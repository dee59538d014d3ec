// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。
// サービス層やミドルウェアから利用する。
type Recorder interface {
	RecordLoanCreated()
	RecordLoanReturned()
	RecordLoanConflict()
	RecordReadFailure(store string)
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loansCreated    prometheus.Counter
	loansReturned   prometheus.Counter
	loanConflicts   prometheus.Counter
	readFailures    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_loans_created_total",
			Help: "貸出登録成功の合計数",
		}),
		loansReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_loans_returned_total",
			Help: "返却処理成功の合計数",
		}),
		loanConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lendman_loan_conflicts_total",
			Help: "貸出競合（貸出中の書籍への貸出要求）の合計数",
		}),
		readFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendman_read_failures_total",
			Help: "読み取り系操作の永続化失敗数（ストア別）",
		}, []string{"store"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lendman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lendman_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loansCreated,
		c.loansReturned,
		c.loanConflicts,
		c.readFailures,
		c.httpStatus,
		c.requestDuration,
	)

	return c
}

// RecordLoanCreated は貸出登録成功を記録する。
func (c *Collector) RecordLoanCreated() {
	c.loansCreated.Inc()
}

// RecordLoanReturned は返却処理成功を記録する。
func (c *Collector) RecordLoanReturned() {
	c.loansReturned.Inc()
}

// RecordLoanConflict は貸出競合を記録する。
func (c *Collector) RecordLoanConflict() {
	c.loanConflicts.Inc()
}

// RecordReadFailure は読み取り系操作の永続化失敗をストア別に記録する。
func (c *Collector) RecordReadFailure(store string) {
	c.readFailures.WithLabelValues(store).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はHTTPリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)
