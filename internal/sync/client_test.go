package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wardwatch/internal/core"
	"wardwatch/pkg/domain"
)

// fakeServer implements the central server's single-endpoint contract:
// queries arrive as GET with an action parameter, mutations as POST
// {action, id?, payload}, and every response is an {ok, ...} envelope.
type fakeServer struct {
	mu      sync.Mutex
	actions []string
	methods []string
	ids     []string
	data    core.RemoteData
	reject  string // action to answer with an error envelope
}

func (f *fakeServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var action, id string
		switch r.Method {
		case http.MethodGet:
			action = r.URL.Query().Get("action")
		case http.MethodPost:
			var env struct {
				Action  string          `json:"action"`
				ID      string          `json:"id"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			action, id = env.Action, env.ID
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		f.mu.Lock()
		f.actions = append(f.actions, action)
		f.methods = append(f.methods, r.Method)
		f.ids = append(f.ids, id)
		reject := f.reject
		data := f.data
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if action == reject {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "not allowed"})
			return
		}
		resp := map[string]any{"ok": true}
		switch action {
		case "ping":
			resp["action"] = "ping"
			resp["time"] = time.Now().UTC().Format(time.RFC3339)
		case "getAllData":
			resp["data"] = data
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (f *fakeServer) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func (f *fakeServer) seenMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func (f *fakeServer) seenIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func TestClientPing(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if actions := fake.seen(); len(actions) != 1 || actions[0] != "ping" {
		t.Fatalf("expected single ping action, got %v", actions)
	}
}

func TestClientQueriesUseGet(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := client.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	methods := fake.seenMethods()
	if len(methods) != 2 || methods[0] != http.MethodGet || methods[1] != http.MethodGet {
		t.Fatalf("expected GET queries, got %v", methods)
	}
}

func TestClientFetchAll(t *testing.T) {
	fake := &fakeServer{data: core.RemoteData{
		Units:  []domain.Unit{{ID: "u_1", Role: domain.RoleWard}},
		Issues: []domain.Issue{{ID: "ISS-1", WardID: "u_1"}},
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	data, err := NewClient(srv.URL, 0).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data.Units) != 1 || len(data.Issues) != 1 {
		t.Fatalf("unexpected record set: %+v", data)
	}
}

func TestClientPushCarriesRecordID(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if err := client.Push(context.Background(), "updateIssue", "ISS-1", domain.Issue{ID: "ISS-1"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if methods := fake.seenMethods(); len(methods) != 1 || methods[0] != http.MethodPost {
		t.Fatalf("expected POST mutation, got %v", methods)
	}
	if ids := fake.seenIDs(); len(ids) != 1 || ids[0] != "ISS-1" {
		t.Fatalf("expected top-level id on push, got %v", ids)
	}
}

func TestClientTransportFailureIsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	err := NewClient(srv.URL, 0).Ping(context.Background())
	if !IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestClientNon200IsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).Ping(context.Background())
	if !IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestClientNonJSONResponseIsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, 0).Ping(context.Background())
	if !IsConnectivity(err) {
		t.Fatalf("expected connectivity error for empty body, got %v", err)
	}
}

func TestClientRejectionIsNotConnectivity(t *testing.T) {
	fake := &fakeServer{reject: "createIssue"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	err := NewClient(srv.URL, 0).Push(context.Background(), "createIssue", "", domain.Issue{ID: "ISS-1"})
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	if IsConnectivity(err) {
		t.Fatalf("server rejection must not read as connectivity loss: %v", err)
	}
}
