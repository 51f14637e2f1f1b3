package svcmetrics

import (
	"strings"
	"testing"

	"github.com/cmstar/go-websvc"
	"github.com/cmstar/go-websvc/websvctest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	m := websvc.NewServicesManager("demo")
	hello := websvc.NewService("say-hello").Handle(func(state *websvc.ApiState) error {
		state.SendJson(200, "hi")
		return nil
	})
	hello.AddParameter(websvc.NewRequestParameter("name", websvc.ParamTypeString, false))
	m.AddService(hello)

	reg := prometheus.NewRegistry()
	c, err := Register(reg, m, "")
	require.NoError(t, err)

	serve := func(url string) {
		websvctest.Serve(m, nil, url, websvctest.NewStateSetup{})
	}

	serve("/?service=say-hello&name=a")
	serve("/?service=say-hello&name=b")
	serve("/?service=say-hello")
	serve("/?service=unknown")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.requests.WithLabelValues("demo", "say-hello", "dispatched", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("demo", "say-hello", "missingRequiredParams", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("demo", "-", "serviceNotFound", "404")))

	expected := `
# HELP websvc_requests_total Number of requests by service and dispatch result.
# TYPE websvc_requests_total counter
websvc_requests_total{code="200",manager="demo",result="dispatched",service="say-hello"} 2
websvc_requests_total{code="404",manager="demo",result="missingRequiredParams",service="say-hello"} 1
websvc_requests_total{code="404",manager="demo",result="serviceNotFound",service="-"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "websvc_requests_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))

	_, err = Register(reg, m, "")
	assert.Error(t, err)
}
