// Package proxmox provides a minimal typed client for the Proxmox VE
// REST API, covering the calls the console needs: version, node
// enumeration, node status, and guest listing.
package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Version describes the server release as reported by /version.
type Version struct {
	Version string `json:"version"`
	Release string `json:"release"`
	RepoID  string `json:"repoid"`
}

// Node is one cluster member as reported by /nodes.
type Node struct {
	Node   string  `json:"node"`
	Status string  `json:"status"`
	CPU    float64 `json:"cpu"`
	MaxCPU int     `json:"maxcpu"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
	Uptime int64   `json:"uptime"`
}

// NodeStatus is the detailed status of a single node.
type NodeStatus struct {
	Uptime  int64 `json:"uptime"`
	LoadAvg []any `json:"loadavg"`
	Memory  struct {
		Total int64 `json:"total"`
		Used  int64 `json:"used"`
		Free  int64 `json:"free"`
	} `json:"memory"`
	RootFS struct {
		Total int64 `json:"total"`
		Used  int64 `json:"used"`
	} `json:"rootfs"`
}

// VM is one guest (QEMU VM or LXC container) on a node.
type VM struct {
	VMID    int     `json:"vmid"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	CPUs    int     `json:"cpus"`
	MaxMem  int64   `json:"maxmem"`
	MaxDisk int64   `json:"maxdisk"`
	Uptime  int64   `json:"uptime"`
	CPU     float64 `json:"cpu"`
}

// Client wraps the Proxmox VE HTTP API. All responses arrive wrapped in
// a {"data": ...} envelope; the typed accessors unwrap it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenID    string
	secret     string
	logger     *log.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL            string // e.g. https://pve.example.com:8006
	TokenID            string // user@realm!tokenname
	Secret             string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             *log.Logger
}

// NewClient configures a Proxmox VE API client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("proxmox base URL must be provided")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	transport := http.DefaultTransport
	if opts.InsecureSkipVerify {
		// Proxmox ships with a self-signed certificate out of the box.
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout, Transport: transport},
		baseURL:    base,
		tokenID:    opts.TokenID,
		secret:     opts.Secret,
		logger:     logger,
	}, nil
}

// GetVersion reports the server release.
func (c *Client) GetVersion(ctx context.Context) (*Version, error) {
	var v Version
	if err := c.get(ctx, "/api2/json/version", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListNodes enumerates cluster members.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.get(ctx, "/api2/json/nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetNodeStatus returns the detailed status of one node.
func (c *Client) GetNodeStatus(ctx context.Context, node string) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.get(ctx, "/api2/json/nodes/"+node+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListVMs enumerates QEMU guests on a node.
func (c *Client) ListVMs(ctx context.Context, node string) ([]VM, error) {
	var vms []VM
	if err := c.get(ctx, "/api2/json/nodes/"+node+"/qemu", &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

// ListContainers enumerates LXC guests on a node.
func (c *Client) ListContainers(ctx context.Context, node string) ([]VM, error) {
	var cts []VM
	if err := c.get(ctx, "/api2/json/nodes/"+node+"/lxc", &cts); err != nil {
		return nil, err
	}
	return cts, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.tokenID != "" {
		req.Header.Set("Authorization", fmt.Sprintf("PVEAPIToken=%s=%s", c.tokenID, c.secret))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Printf("[proxmox] GET %s -> %d (%d bytes)", path, resp.StatusCode, len(body))

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("authentication failed: check token_id and token_secret")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("api error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	// Every Proxmox response wraps its payload in a data envelope.
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("empty response from %s", path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}
