// Package metrics Prometheus 指标
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schedule_arranger"

// Metrics 业务与 HTTP 指标集合
// 零值可用：未调用 Register 时所有方法为空操作
type Metrics struct {
	httpRequests        *prometheus.CounterVec
	httpLatency         *prometheus.HistogramVec
	availabilityUpserts *prometheus.CounterVec
	gridAggregations    prometheus.Counter
	gridUsers           prometheus.Histogram
	schedulesCreated    prometheus.Counter

	registerOnce sync.Once
}

// New 创建并注册指标；registry 为 nil 时返回未注册实例
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

// Register 向 registry 注册指标，重复调用无副作用
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"})

		m.httpLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"})

		m.availabilityUpserts = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_upserts_total",
			Help:      "Total number of availability upserts by value",
		}, []string{"availability"})

		m.gridAggregations = factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_aggregations_total",
			Help:      "Total number of attendance grids built",
		})

		m.gridUsers = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_users",
			Help:      "Number of user rows per attendance grid",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		})

		m.schedulesCreated = factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_created_total",
			Help:      "Total number of schedules created",
		})
	})
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// IncAvailabilityUpsert 记录一次出欠更新
func (m *Metrics) IncAvailabilityUpsert(availability int) {
	if m == nil || m.availabilityUpserts == nil {
		return
	}
	m.availabilityUpserts.WithLabelValues(strconv.Itoa(availability)).Inc()
}

// ObserveGrid 记录一次出欠表汇总
func (m *Metrics) ObserveGrid(users int) {
	if m == nil || m.gridAggregations == nil {
		return
	}
	m.gridAggregations.Inc()
	m.gridUsers.Observe(float64(users))
}

// IncScheduleCreated 记录一次日程创建
func (m *Metrics) IncScheduleCreated() {
	if m == nil || m.schedulesCreated == nil {
		return
	}
	m.schedulesCreated.Inc()
}
