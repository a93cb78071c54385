package proxmox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL: server.URL,
		TokenID: "root@pam!console",
		Secret:  "secret",
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGetVersionUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api2/json/version" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "PVEAPIToken=root@pam!console=secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"data":{"version":"8.2.4","release":"8.2","repoid":"abc123"}}`))
	})

	v, err := client.GetVersion(context.Background())
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	if v.Version != "8.2.4" || v.Release != "8.2" {
		t.Fatalf("unexpected version: %+v", v)
	}
}

func TestListNodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"node":"pve1","status":"online","maxmem":34359738368},{"node":"pve2","status":"offline"}]}`))
	})

	nodes, err := client.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Node != "pve1" || nodes[1].Status != "offline" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestListVMs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api2/json/nodes/pve1/qemu" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"vmid":100,"name":"web-1","status":"running","cpus":2,"maxmem":2147483648}]}`))
	})

	vms, err := client.ListVMs(context.Background(), "pve1")
	if err != nil {
		t.Fatalf("list vms: %v", err)
	}
	if len(vms) != 1 || vms[0].VMID != 100 || vms[0].Name != "web-1" {
		t.Fatalf("unexpected vms: %+v", vms)
	}
}

func TestUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := client.GetVersion(context.Background()); err == nil {
		t.Fatal("expected authentication error")
	}
}

func TestAPIErrorIncludesBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("node offline"))
	})

	_, err := client.ListNodes(context.Background())
	if err == nil {
		t.Fatal("expected api error")
	}
	if got := err.Error(); got == "" || !strings.Contains(got, "node offline") {
		t.Fatalf("error should include response body, got %q", got)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestNewClientDefaultsToHTTPS(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "pve.example.com:8006"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != "https://pve.example.com:8006" {
		t.Fatalf("baseURL = %q, want https scheme", client.baseURL)
	}
}
