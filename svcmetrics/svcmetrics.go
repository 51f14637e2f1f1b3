// svcmetrics 包基于 Prometheus 统计 websvc 请求的处理结果。
package svcmetrics

import (
	"strconv"
	"time"

	"github.com/cmstar/go-websvc"
	"github.com/prometheus/client_golang/prometheus"
)

// 未能解析到服务时， service 标签的值。
const unknownService = "-"

// Collector 实现 websvc.DispatchObserver ，按服务和处理结果统计请求：
//   - websvc_requests_total{manager,service,result,code} 请求数；
//   - websvc_request_duration_seconds{manager,service} 请求的处理耗时。
//
// service 标签只使用已注册的服务名称，未能找到服务的请求记为“-”，以免任意的名称产生过多的序列。
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	_ websvc.DispatchObserver = (*Collector)(nil)
	_ prometheus.Collector    = (*Collector)(nil)
)

// NewCollector 创建一个 Collector 。 namespace 为空时，指标名称以 websvc 开头。
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "websvc"
	}

	return &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests by service and dispatch result.",
		}, []string{"manager", "service", "result", "code"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent processing requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"manager", "service"}),
	}
}

// Observe implements websvc.DispatchObserver.Observe.
func (c *Collector) Observe(state *websvc.ApiState) {
	manager := ""
	if state.Manager != nil {
		manager = state.Manager.Name
	}

	service := unknownService
	if state.Service != nil {
		service = state.Service.Name()
	}

	code := state.ResponseStatus
	if code == 0 {
		code = 200
	}

	c.requests.WithLabelValues(manager, service, state.Result.String(), strconv.Itoa(code)).Inc()

	if !state.StartTime.IsZero() {
		c.duration.WithLabelValues(manager, service).Observe(time.Since(state.StartTime).Seconds())
	}
}

// Describe implements prometheus.Collector.Describe.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.Collect.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.duration.Collect(ch)
}

// Register 创建 Collector ，注册到 registerer 并添加为 manager 的 DispatchObserver 。
func Register(registerer prometheus.Registerer, manager *websvc.ServicesManager, namespace string) (*Collector, error) {
	c := NewCollector(namespace)
	if err := registerer.Register(c); err != nil {
		return nil, err
	}
	manager.AddObserver(c)
	return c, nil
}
