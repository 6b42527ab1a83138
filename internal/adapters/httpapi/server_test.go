package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/pkg/log"
)

// mockRegulator implements Regulator for handler tests.
type mockRegulator struct {
	mu       sync.Mutex
	obs      domain.Observation
	setpoint float64
	rejectSP bool
}

func (m *mockRegulator) Snapshot() domain.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.obs
}

func (m *mockRegulator) Setpoint() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setpoint
}

func (m *mockRegulator) SetSetpoint(flow float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejectSP {
		return fmt.Errorf("setpoint rejected")
	}
	m.setpoint = flow
	return nil
}

func newTestServer(reg Regulator) *Server {
	return NewServer("127.0.0.1:0", reg, log.NewNoopLogger())
}

func TestServer_GetStatus(t *testing.T) {
	reg := &mockRegulator{
		obs: domain.Observation{
			Timestamp: time.Unix(1234, 0).UTC(),
			Setpoint:  10,
			Flow:      9.5,
			FlowValid: true,
			Command:   0.4,
			State:     "Running",
		},
	}
	srv := newTestServer(reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.Observation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Flow != 9.5 || !got.FlowValid || got.Command != 0.4 || got.State != "Running" {
		t.Errorf("observation = %+v", got)
	}
}

func TestServer_PutSetpoint(t *testing.T) {
	reg := &mockRegulator{}
	srv := newTestServer(reg)

	req := httptest.NewRequest(http.MethodPut, "/v1/setpoint", strings.NewReader(`{"flow": 25.5}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if reg.Setpoint() != 25.5 {
		t.Errorf("setpoint = %v, want 25.5", reg.Setpoint())
	}
}

func TestServer_PutSetpoint_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "flow=10"},
		{"wrong type", `{"flow": "fast"}`},
		{"unknown field", `{"rate": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockRegulator{})
			req := httptest.NewRequest(http.MethodPut, "/v1/setpoint", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestServer_PutSetpoint_RegulatorRejection(t *testing.T) {
	srv := newTestServer(&mockRegulator{rejectSP: true})

	req := httptest.NewRequest(http.MethodPut, "/v1/setpoint", strings.NewReader(`{"flow": 10}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_GetSetpoint(t *testing.T) {
	reg := &mockRegulator{setpoint: 33}
	srv := newTestServer(reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/setpoint", nil))

	var got setpointBody
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Flow != 33 {
		t.Errorf("flow = %v, want 33", got.Flow)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(&mockRegulator{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&mockRegulator{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status", nil))

	if rec.Code == http.StatusOK {
		t.Error("POST /v1/status must not be routable")
	}
}

// The feed outlives control sessions: after Shutdown, a new Start must
// serve again rather than dying on a spent http.Server.
func TestServer_RestartsAfterShutdown(t *testing.T) {
	srv := newTestServer(&mockRegulator{setpoint: 5})

	get := func(session string) {
		t.Helper()
		resp, err := http.Get("http://" + srv.Addr() + "/health")
		if err != nil {
			t.Fatalf("%s session: GET /health error = %v", session, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s session: status = %d, want 200", session, resp.StatusCode)
		}
	}

	if err := srv.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	get("first")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	cancel()

	if err := srv.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	get("second")
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	srv := newTestServer(&mockRegulator{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() before Start error = %v", err)
	}
}
