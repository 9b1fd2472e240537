package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/beckelmw/sms-question-poker/internal/interface/http"
)

// DebugModule serves liveness and, when enabled, Prometheus metrics.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	Metrics  bool
}

func NewDebugModule(g prometheus.Gatherer, metrics bool) *DebugModule {
	return &DebugModule{Gatherer: g, Metrics: metrics}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", handlers.Ping)
	if m.Metrics && m.Gatherer != nil {
		rg.GET("/debug/metrics", gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}
}
