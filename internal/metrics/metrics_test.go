package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, collector *HTTPCollector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestHTTPCollectorRecordsMetrics(t *testing.T) {
	collector, err := NewHTTPCollector()
	if err != nil {
		t.Fatalf("NewHTTPCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `enact_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `enact_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestPipelineCounters(t *testing.T) {
	collector, err := NewHTTPCollector()
	if err != nil {
		t.Fatalf("NewHTTPCollector returned error: %v", err)
	}

	collector.RecordTracked("youtube", "standard_benchmark", 1.1875)
	collector.RecordTracked("youtube", "standard_benchmark", 1.1875)
	collector.AlertRaised("daily")
	collector.SamplerTick()

	body := scrape(t, collector)
	if !strings.Contains(body, `enact_emissions_records_tracked_total{activity_type="youtube",method="standard_benchmark"} 2`) {
		t.Fatalf("records_tracked_total not recorded, body=%q", body)
	}
	if !strings.Contains(body, `enact_emissions_co2_grams_total 2.375`) {
		t.Fatalf("co2_grams_total not recorded, body=%q", body)
	}
	if !strings.Contains(body, `enact_emissions_threshold_alerts_total{threshold_type="daily"} 1`) {
		t.Fatalf("threshold_alerts_total not recorded, body=%q", body)
	}
	if !strings.Contains(body, `enact_tracker_samples_total 1`) {
		t.Fatalf("samples_total not recorded, body=%q", body)
	}
}
