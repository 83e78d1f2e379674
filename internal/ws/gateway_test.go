package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"ridepulse/internal/jwt"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"

	"github.com/gorilla/websocket"
)

// The gateway tests only exercise the connect/auth/teardown path, so the
// service stubs never receive a call.
type locatorStub struct{ ports.LocatorService }

type tripServiceStub struct{ ports.TripService }

func newTestGateway(t *testing.T) (*Gateway, *jwt.Manager) {
	t.Helper()
	mgr := jwt.NewManager("gateway-test-secret", time.Hour)
	reg := NewRegistry(logger.New("test"))
	gw := NewGateway(logger.New("test"), mgr, reg, locatorStub{}, tripServiceStub{})
	return gw, mgr
}

// dialDriver connects through a real server, completes the first-frame auth
// handshake, and returns the client end.
func dialDriver(t *testing.T, srvURL string, mgr *jwt.Manager, driverID string) *websocket.Conn {
	t.Helper()

	token, _, err := mgr.IssuePartyToken(driverID, jwt.RoleDriver)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws/driver/" + driverID
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	auth, _ := json.Marshal(jwt.ClientAuthMessage{Type: "auth", Token: "Bearer " + token})
	if err := client.WriteMessage(websocket.TextMessage, auth); err != nil {
		t.Fatalf("write auth frame: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read auth reply: %v", err)
	}
	var reply struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &reply); err != nil {
		t.Fatalf("decode auth reply: %v", err)
	}
	if reply.Type != "auth_success" {
		t.Fatalf("auth reply type = %q, want auth_success", reply.Type)
	}
	return client
}

func TestConnectCleanCloseReleasesGoroutines(t *testing.T) {
	gw, mgr := newTestGateway(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/driver/{driver_id}", gw.ConnectDriver)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	baseline := runtime.NumGoroutine()

	// every clean disconnect must take the ping goroutine down with it
	const connections = 5
	for i := 0; i < connections; i++ {
		driverID := fmt.Sprintf("driver-%d", i)
		client := dialDriver(t, srv.URL, mgr, driverID)

		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				break
			}
		}
		client.Close()
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= baseline {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("goroutines = %d after %d closed connections, want <= %d",
		runtime.NumGoroutine(), connections, baseline)
}

func TestConnectRegistersPartyUntilDisconnect(t *testing.T) {
	gw, mgr := newTestGateway(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/driver/{driver_id}", gw.ConnectDriver)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := dialDriver(t, srv.URL, mgr, "driver-42")
	defer client.Close()

	waitFor(t, "registration", func() bool { return gw.registry.IsConnected("driver-42") })

	_ = client.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))

	waitFor(t, "unregistration", func() bool { return !gw.registry.IsConnected("driver-42") })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
