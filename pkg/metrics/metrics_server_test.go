/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) IsHealthy(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("health check without deadline")
	}
	return m.err
}

func Test_StartMetricsServer(t *testing.T) {
	ms := NewMetricsServer(WithAddr("127.0.0.1:0"))
	shutdown, err := ms.Start(context.Background())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, shutdown(context.Background()))
	}()

	e := httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  fmt.Sprintf("http://%s", ms.Addr()),
		Reporter: httpexpect.NewRequireReporter(t),
	})
	e.GET("/livez").WithMaxRetries(3).WithRetryDelay(100*time.Millisecond, time.Second).Expect().Status(204)
	e.GET("/metrics").WithMaxRetries(3).WithRetryDelay(100*time.Millisecond, time.Second).Expect().Status(200)
}

func Test_StartMetricsServer_AddrInUse(t *testing.T) {
	ms := NewMetricsServer(WithAddr("127.0.0.1:0"))
	shutdown, err := ms.Start(context.Background())
	require.NoError(t, err)
	defer func() {
		_ = shutdown(context.Background())
	}()

	_, err = NewMetricsServer(WithAddr(ms.Addr())).Start(context.Background())
	assert.Error(t, err)
}

func Test_MetricsServer_Readiness(t *testing.T) {
	healthy := &mockHealthChecker{}
	ms := NewMetricsServer(WithHealthCheckers(context.Background(), healthy))
	server := httptest.NewServer(ms.handler(context.Background()))
	defer server.Close()

	e := httpexpect.Default(t, server.URL)
	e.GET("/readyz").Expect().Status(204)

	healthy.err = errors.New("state store unavailable")
	e.GET("/readyz").Expect().Status(500).Body().IsEqual("state store unavailable")
}

func Test_MetricsServer_WithHealthCheckExecutor(t *testing.T) {
	executed := false
	executor := func() error {
		executed = true
		return nil
	}
	ms := NewMetricsServer(WithHealthCheckExecutor(executor))
	assert.Equal(t, 1, len(ms.healthCheckExecutors))
	err := ms.healthCheckExecutors[0]()
	assert.NoError(t, err)
	assert.True(t, executed)
	assert.Equal(t, DefaultMetricsAddr, ms.Addr())
}

func Test_OperatorMetrics(t *testing.T) {
	EventsCount.WithLabelValues("Test").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(EventsCount.WithLabelValues("Test")))

	RetainedSlices.WithLabelValues("Test").Set(7)
	m := &dto.Metric{}
	require.NoError(t, RetainedSlices.WithLabelValues("Test").Write(m))
	assert.Equal(t, float64(7), m.GetGauge().GetValue())
}
