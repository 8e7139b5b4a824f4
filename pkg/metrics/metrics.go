// Package metrics 定义 scenekit 的 Prometheus 指标。
//
// 指标分类：
//   - HTTP：请求数、耗时
//   - Pipeline：节点耗时、打分候选数
//   - 特征：推理时未见过的类别
//   - 缓存：选择结果缓存命中情况
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenekit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenekit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenekit_pipeline_node_duration_seconds",
			Help:    "Duration of selector pipeline nodes in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"node"},
	)

	CandidatesScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scenekit_candidates_scored_total",
			Help: "Total number of scene variants scored by the classifier",
		},
	)

	UnseenCategoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenekit_unseen_categories_total",
			Help: "Categorical values not seen at training time, encoded with the sentinel",
		},
		[]string{"field"},
	)

	SelectionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenekit_selection_cache_total",
			Help: "Selection cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordNode 记录 pipeline 节点耗时
func RecordNode(node string, d time.Duration) {
	NodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// RecordUnseen 记录未见类别次数
func RecordUnseen(unseen map[string]int) {
	for field, n := range unseen {
		if n > 0 {
			UnseenCategoriesTotal.WithLabelValues(field).Add(float64(n))
		}
	}
}

func RecordCacheHit()   { SelectionCacheTotal.WithLabelValues("hit").Inc() }
func RecordCacheMiss()  { SelectionCacheTotal.WithLabelValues("miss").Inc() }
func RecordCacheError() { SelectionCacheTotal.WithLabelValues("error").Inc() }
