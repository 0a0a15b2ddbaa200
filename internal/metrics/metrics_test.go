package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDerived(t *testing.T) {
	before := testutil.ToFloat64(Derivations.WithLabelValues(KindPublic))
	Derived(KindPublic, 3)
	after := testutil.ToFloat64(Derivations.WithLabelValues(KindPublic))
	if after-before != 3 {
		t.Errorf("public derivations grew by %v, want 3", after-before)
	}
}

func TestLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheLookups.WithLabelValues(TierMemory, ResultHit))
	misses := testutil.ToFloat64(CacheLookups.WithLabelValues(TierMemory, ResultMiss))

	Lookup(TierMemory, true)
	Lookup(TierMemory, false)
	Lookup(TierMemory, false)

	if got := testutil.ToFloat64(CacheLookups.WithLabelValues(TierMemory, ResultHit)) - hits; got != 1 {
		t.Errorf("hits grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheLookups.WithLabelValues(TierMemory, ResultMiss)) - misses; got != 2 {
		t.Errorf("misses grew by %v, want 2", got)
	}
}

func TestObserveRPC_UnknownMethodFolded(t *testing.T) {
	before := testutil.ToFloat64(RPCRequests.WithLabelValues("unknown", "error"))
	ObserveRPC("no_such_method", false, false, time.Now())
	if got := testutil.ToFloat64(RPCRequests.WithLabelValues("unknown", "error")) - before; got != 1 {
		t.Errorf("unknown requests grew by %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	Derived(KindPrivate, 1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "klingnet_hd_derivations_total") {
		t.Error("exposition missing klingnet_hd_derivations_total")
	}
}
