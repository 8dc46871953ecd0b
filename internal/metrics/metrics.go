package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_requests_total",
		Help: "Total number of API requests by route and status class",
	}, []string{"route", "class"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "choromap_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_imports_total",
		Help: "Total imports by kind (geography, candidates, results, election) and outcome",
	}, []string{"kind", "outcome"})
	DeriveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "choromap_derive_duration_ms",
		Help:    "Join, aggregate, style and fit pipeline duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500},
	})
	WarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_warnings_total",
		Help: "Non-fatal warnings produced by committed derivations",
	}, []string{"kind"})
	StaleLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_stale_loads_total",
		Help: "Load results discarded because a newer load for the same slot was issued",
	}, []string{"slot"})
	GeoCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_geo_cache_hits_total",
		Help: "Built-in map cache hits by tier (memory, redis)",
	}, []string{"tier"})
	GeoCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choromap_geo_cache_misses_total",
		Help: "Built-in map loads that had to read and normalize the source file",
	})
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_exports_total",
		Help: "Static exports by format",
	}, []string{"format"})
	ExportDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "choromap_export_duration_ms",
		Help:    "Static export duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"format"})
	RegionsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "choromap_regions_loaded",
		Help: "Number of regions in the active geography",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(ImportsTotal)
	prometheus.MustRegister(DeriveDurationMs)
	prometheus.MustRegister(WarningsTotal)
	prometheus.MustRegister(StaleLoadsTotal)
	prometheus.MustRegister(GeoCacheHitsTotal)
	prometheus.MustRegister(GeoCacheMissesTotal)
	prometheus.MustRegister(ExportsTotal)
	prometheus.MustRegister(ExportDurationMs)
	prometheus.MustRegister(RegionsLoaded)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
