package device

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jypelle/frontpanel/apimodel"
	"github.com/jypelle/frontpanel/internal/srv/config"
	"github.com/jypelle/frontpanel/internal/srv/event"
)

func newTestApi(t *testing.T) *Api {
	t.Helper()
	param, err := config.ParseServerParam([]byte("api:\n  enabled: true\n  api_key: secret\n"))
	if err != nil {
		t.Fatal(err)
	}
	serverConfig := &config.ServerConfig{ConfigDir: t.TempDir(), ServerParam: param}
	return NewApi(serverConfig, func() apimodel.StateMessage {
		return apimodel.StateMessage{State: "ViewCycle.Auto", ActiveView: "Clock", Brightness: 3, TemperatureUnit: "C"}
	})
}

func doRequest(api *Api, method string, path string, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

// answerDialCommands replies to api events with reply and forwards the commands received.
func answerDialCommands(api *Api, reply error) <-chan event.DialCommand {
	commands := make(chan event.DialCommand, 1)
	go func() {
		apiEvent := <-api.EventChannel()
		commands <- apiEvent.Data.(event.ApiEventDialData).Command
		apiEvent.Result <- reply
	}()
	return commands
}

func TestApiAuth(t *testing.T) {
	api := newTestApi(t)

	if rec := doRequest(api, "GET", "/api/is_alive", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without key, got %d", rec.Code)
	}
	if rec := doRequest(api, "GET", "/api/is_alive", "wrong"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with a wrong key, got %d", rec.Code)
	}
	if rec := doRequest(api, "GET", "/api/is_alive", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := doRequest(api, "GET", "/api/unknown", "secret"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestApiState(t *testing.T) {
	api := newTestApi(t)

	rec := doRequest(api, "GET", "/api/state", "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state apimodel.StateMessage
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.ActiveView != "Clock" || state.Brightness != 3 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestApiDialPress(t *testing.T) {
	api := newTestApi(t)
	commands := answerDialCommands(api, nil)

	rec := doRequest(api, "POST", "/api/dial/press", "secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if command := <-commands; command.Type != event.DIAL_PRESSED {
		t.Fatalf("unexpected command %+v", command)
	}
}

func TestApiDialTurn(t *testing.T) {
	api := newTestApi(t)
	commands := answerDialCommands(api, nil)

	rec := doRequest(api, "POST", "/api/dial/turn/-3", "secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if command := <-commands; command.Type != event.DIAL_TURNED || command.Delta != -3 {
		t.Fatalf("unexpected command %+v", command)
	}

	for _, path := range []string{"/api/dial/turn/0", "/api/dial/turn/500", "/api/dial/turn/abc"} {
		if rec := doRequest(api, "POST", path, "secret"); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestApiDialRejected(t *testing.T) {
	api := newTestApi(t)
	answerDialCommands(api, errors.New("input queue full"))

	rec := doRequest(api, "POST", "/api/dial/press", "secret")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var message apimodel.ErrorMessage
	if err := json.NewDecoder(rec.Body).Decode(&message); err != nil {
		t.Fatal(err)
	}
	if message.ErrMessage != "input queue full" {
		t.Fatalf("unexpected message %q", message.ErrMessage)
	}
}

func TestApiMethodNotAllowed(t *testing.T) {
	api := newTestApi(t)
	if rec := doRequest(api, "GET", "/api/dial/press", "secret"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
