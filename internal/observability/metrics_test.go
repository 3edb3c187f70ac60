package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordToolCall(t *testing.T) {
	before := testutil.ToFloat64(toolCalls.WithLabelValues("get_current_time", "succeeded"))
	RecordToolCall("get_current_time", "succeeded", 3*time.Millisecond)
	RecordToolCall("get_current_time", "succeeded", 4*time.Millisecond)
	after := testutil.ToFloat64(toolCalls.WithLabelValues("get_current_time", "succeeded"))
	if after-before != 2 {
		t.Errorf("expected 2 new calls, got %v", after-before)
	}
}

func TestRecordPersistFailure(t *testing.T) {
	before := testutil.ToFloat64(persistFailures.WithLabelValues("json"))
	RecordPersistFailure("json")
	if got := testutil.ToFloat64(persistFailures.WithLabelValues("json")); got-before != 1 {
		t.Errorf("expected 1 new failure, got %v", got-before)
	}
}

func TestSetStoreRecords(t *testing.T) {
	SetStoreRecords("reminders", 7)
	if got := testutil.ToFloat64(storeRecords.WithLabelValues("reminders")); got != 7 {
		t.Errorf("gauge: got %v", got)
	}
}

func TestHandler(t *testing.T) {
	RecordToolCall("convert_time", "failed", time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `chronos_tool_calls_total{outcome="failed",tool="convert_time"}`) {
		t.Error("exposition missing tool call counter")
	}
}
