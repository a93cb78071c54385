package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/proxmox-mpc/proxmox-mpc/internal/store"
	"github.com/proxmox-mpc/proxmox-mpc/internal/workspace"
)

// registerBuiltins populates the registry with the fixed slash-command
// set. Registration order is help-listing order.
func (c *Console) registerBuiltins() {
	c.registry.Register(Command{"help", "Show available commands", c.cmdHelp})
	c.registry.Register(Command{"init", "Initialize a workspace in the current directory", c.cmdInit})
	c.registry.Register(Command{"status", "Show session and server status", c.cmdStatus})
	c.registry.Register(Command{"sync", "Sync server inventory into the workspace database", c.cmdSync})
	c.registry.Register(Command{"exit", "Exit the console", c.cmdExit})
	c.registry.Register(Command{"version", "Show client and server versions", c.cmdVersion})
	c.registry.Register(Command{"history", "Show recent session input (/history [n])", c.cmdHistory})
	c.registry.Register(Command{"nodes", "List cluster nodes", c.cmdNodes})
}

func (c *Console) cmdHelp(args []string, sess *Session) error {
	c.printHelp()
	return nil
}

func (c *Console) cmdExit(args []string, sess *Session) error {
	return ErrExitRequested
}

func (c *Console) cmdInit(args []string, sess *Session) error {
	host := c.cfg.DefaultHost
	node := c.cfg.DefaultNode
	name := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--host":
			if i+1 >= len(args) {
				return fmt.Errorf("--host requires a value")
			}
			i++
			host = args[i]
		case "--node":
			if i+1 >= len(args) {
				return fmt.Errorf("--node requires a value")
			}
			i++
			node = args[i]
		case "--name":
			if i+1 >= len(args) {
				return fmt.Errorf("--name requires a value")
			}
			i++
			name = args[i]
		default:
			return fmt.Errorf("unrecognized argument %q (expected --host, --node, or --name)", args[i])
		}
	}
	if host == "" {
		return fmt.Errorf("no server host given: pass --host or set default_host in config.yaml")
	}

	ws, err := workspace.Init(c.workDir, name, host, node)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✅ Initialized workspace %s (host %s, node %s)\n", ws.Name, ws.Config.Host, ws.Config.Node)

	// Explicit re-detection: the startup pass found nothing, so the
	// freshly created marker may now populate the session.
	if sess.Workspace() == nil {
		if detected, derr := c.detect(c.workDir); derr == nil {
			sess.SetWorkspace(detected)
			c.openStore(detected)
		}
	}
	return nil
}

func (c *Console) cmdStatus(args []string, sess *Session) error {
	fmt.Fprintln(c.out, "📊 Session status")
	fmt.Fprintf(c.out, "  Started: %s\n", sess.StartTime().Format(time.RFC3339))
	fmt.Fprintf(c.out, "  Uptime: %ds\n", int(sess.Elapsed().Seconds()))
	fmt.Fprintf(c.out, "  Commands this session: %d\n", len(sess.History()))

	ws := sess.Workspace()
	if ws == nil {
		fmt.Fprintln(c.out, "  Workspace: none detected (run /init to create one)")
		return nil
	}
	fmt.Fprintf(c.out, "  Workspace: %s (host %s, node %s)\n", ws.Name, ws.Config.Host, ws.Config.Node)
	if c.store != nil {
		fmt.Fprintf(c.out, "  State database: %s\n", c.store.Path())
	}

	api, err := c.apiFor(ws)
	if err != nil {
		fmt.Fprintf(c.out, "  ⚠️  Server: client unavailable: %v\n", err)
		return nil
	}

	ctx, cancel := c.requestContext()
	defer cancel()

	version, err := api.GetVersion(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "  ⚠️  Server: unreachable: %v\n", err)
		return nil
	}
	fmt.Fprintf(c.out, "  Server: Proxmox VE %s (online)\n", version.Version)

	if ws.Config.Node != "" {
		if status, err := api.GetNodeStatus(ctx, ws.Config.Node); err == nil {
			fmt.Fprintf(c.out, "  Node %s: up %s, memory %s/%s\n",
				ws.Config.Node,
				formatUptime(status.Uptime),
				formatBytes(status.Memory.Used),
				formatBytes(status.Memory.Total))
		} else {
			fmt.Fprintf(c.out, "  ⚠️  Node %s: status unavailable: %v\n", ws.Config.Node, err)
		}
	}
	return nil
}

func (c *Console) cmdSync(args []string, sess *Session) error {
	ws := sess.Workspace()
	if ws == nil {
		return fmt.Errorf("no workspace detected: run /init first")
	}
	if ws.Config.Node == "" {
		return fmt.Errorf("workspace has no node configured")
	}
	if c.store == nil {
		c.openStore(ws)
		if c.store == nil {
			return fmt.Errorf("workspace state database unavailable")
		}
	}

	api, err := c.apiFor(ws)
	if err != nil {
		return err
	}

	ctx, cancel := c.requestContext()
	defer cancel()

	vms, err := api.ListVMs(ctx, ws.Config.Node)
	if err != nil {
		return fmt.Errorf("list VMs: %w", err)
	}
	cts, err := api.ListContainers(ctx, ws.Config.Node)
	if err != nil {
		return fmt.Errorf("list containers: %w", err)
	}

	now := time.Now()
	records := make([]store.Resource, 0, len(vms)+len(cts))
	for _, vm := range vms {
		records = append(records, store.Resource{
			VMID: vm.VMID, Type: "qemu", Node: ws.Config.Node, Name: vm.Name,
			Status: vm.Status, CPUs: vm.CPUs, MaxMem: vm.MaxMem, MaxDisk: vm.MaxDisk,
			SyncedAt: now,
		})
	}
	for _, ct := range cts {
		records = append(records, store.Resource{
			VMID: ct.VMID, Type: "lxc", Node: ws.Config.Node, Name: ct.Name,
			Status: ct.Status, CPUs: ct.CPUs, MaxMem: ct.MaxMem, MaxDisk: ct.MaxDisk,
			SyncedAt: now,
		})
	}

	if err := c.store.UpsertResources(ctx, records); err != nil {
		return fmt.Errorf("persist inventory: %w", err)
	}
	fmt.Fprintf(c.out, "🔄 Synced %d VMs and %d containers from node %s.\n", len(vms), len(cts), ws.Config.Node)
	return nil
}

func (c *Console) cmdNodes(args []string, sess *Session) error {
	ws := sess.Workspace()
	if ws == nil {
		return fmt.Errorf("no workspace detected: run /init first")
	}
	api, err := c.apiFor(ws)
	if err != nil {
		return err
	}

	ctx, cancel := c.requestContext()
	defer cancel()

	nodes, err := api.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}
	if len(nodes) == 0 {
		fmt.Fprintln(c.out, "No nodes reported by the cluster.")
		return nil
	}
	fmt.Fprintln(c.out, "Nodes:")
	for _, n := range nodes {
		fmt.Fprintf(c.out, "  - %s: %s, cpu %.0f%%, memory %s/%s, up %s\n",
			n.Node, n.Status, n.CPU*100, formatBytes(n.Mem), formatBytes(n.MaxMem), formatUptime(n.Uptime))
	}
	return nil
}

func (c *Console) cmdVersion(args []string, sess *Session) error {
	v := c.version
	if v == "" {
		v = "dev"
	}
	fmt.Fprintf(c.out, "proxmox-mpc %s\n", v)

	ws := sess.Workspace()
	if ws == nil {
		return nil
	}
	api, err := c.apiFor(ws)
	if err != nil {
		return nil
	}
	ctx, cancel := c.requestContext()
	defer cancel()
	if server, err := api.GetVersion(ctx); err == nil {
		fmt.Fprintf(c.out, "Proxmox VE %s (release %s)\n", server.Version, server.Release)
	}
	return nil
}

func (c *Console) cmdHistory(args []string, sess *Session) error {
	limit := 10
	if len(args) > 0 {
		val, err := strconv.Atoi(args[0])
		if err != nil || val <= 0 {
			return fmt.Errorf("/history expects a positive integer limit")
		}
		limit = val
	}

	entries := sess.History()
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No input recorded this session.")
		return nil
	}
	start := 0
	if len(entries) > limit {
		start = len(entries) - limit
	}
	for i := start; i < len(entries); i++ {
		fmt.Fprintf(c.out, "  %d  %s\n", i+1, entries[i])
	}
	return nil
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := strings.Split("KMGTPE", "")[exp]
	return fmt.Sprintf("%.1f%siB", value, suffix)
}
