package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncProxyDispatchMovesCounter(t *testing.T) {
	m := NewMetrics()

	m.IncProxyDispatch(true)
	m.IncProxyDispatch(true)
	m.IncProxyDispatch(false)

	if got := testutil.ToFloat64(m.ProxyDispatches.WithLabelValues("success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProxyDispatches.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}
