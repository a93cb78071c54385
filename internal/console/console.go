// Package console implements the interactive proxmox-mpc shell: a
// registry of slash commands, a per-run session, an input classifier,
// and the read-eval loop that ties them together. One process serves
// one interactive user; command execution is fully serialized.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/proxmox-mpc/proxmox-mpc/internal/config"
	"github.com/proxmox-mpc/proxmox-mpc/internal/logging"
	"github.com/proxmox-mpc/proxmox-mpc/internal/proxmox"
	"github.com/proxmox-mpc/proxmox-mpc/internal/resources"
	"github.com/proxmox-mpc/proxmox-mpc/internal/store"
	"github.com/proxmox-mpc/proxmox-mpc/internal/workspace"
)

const promptPrefix = "proxmox-mpc> "

// slashHint is the fixed hint shown after an unknown slash command.
const slashHint = "💡 Available slash commands: /help, /init, /status, /sync, /exit"

// promptExit unwinds the go-prompt run loop when exit is requested.
type promptExit struct{}

// API is the subset of the Proxmox client the console commands use.
type API interface {
	GetVersion(ctx context.Context) (*proxmox.Version, error)
	ListNodes(ctx context.Context) ([]proxmox.Node, error)
	GetNodeStatus(ctx context.Context, node string) (*proxmox.NodeStatus, error)
	ListVMs(ctx context.Context, node string) ([]proxmox.VM, error)
	ListContainers(ctx context.Context, node string) ([]proxmox.VM, error)
}

// APIFactory builds an API client for a detected workspace.
type APIFactory func(ws *workspace.Workspace) (API, error)

// ResourceHandler consumes raw resource-command lines (create/delete/
// list/describe). The console forwards the line unparsed.
type ResourceHandler interface {
	Handle(rawLine string) error
}

// DetectFunc locates the workspace for a directory.
type DetectFunc func(dir string) (*workspace.Workspace, error)

// Options configures a Console.
type Options struct {
	Config  config.Config
	Logger  *log.Logger
	Version string
	WorkDir string

	// Log is the structured logger for diagnostic output. When nil,
	// one is built over Logger with the configured log_json mode.
	Log *logging.StructuredLogger

	// Input/Output default to stdin/stdout. Supplying Input forces the
	// plain line-reader loop, which is what the tests drive.
	Input  io.Reader
	Output io.Writer

	Detect    DetectFunc
	Resources ResourceHandler
	NewAPI    APIFactory
}

// Console wires the registry, session, classifier, and loop together.
type Console struct {
	cfg       config.Config
	registry  *Registry
	session   *Session
	history   *inputHistory
	resources ResourceHandler
	detect    DetectFunc
	newAPI    APIFactory
	store     *store.Store
	api       API
	logger    *log.Logger
	log       *logging.StructuredLogger
	in        io.Reader
	out       io.Writer
	render    *glamour.TermRenderer
	version   string
	workDir   string

	// interactive selects the go-prompt line editor over the plain
	// reader loop. True only when both ends are real terminals.
	interactive bool
}

// New returns a fully wired Console ready to Run.
func New(opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	structured := opts.Log
	if structured == nil {
		structured = logging.NewStructuredLogger(logger, "console", opts.Config.LogJSON)
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	in := opts.Input
	interactive := false
	if in == nil {
		in = os.Stdin
		interactive = term.IsTerminal(int(os.Stdin.Fd()))
	}
	out := opts.Output
	var renderer *glamour.TermRenderer
	if out == nil {
		out = os.Stdout
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(0),
			); err == nil {
				renderer = r
			}
		}
	}

	detect := opts.Detect
	if detect == nil {
		detect = workspace.Detect
	}
	resHandler := opts.Resources
	if resHandler == nil {
		resHandler = resources.NewHandler(out)
	}

	c := &Console{
		cfg:         opts.Config,
		registry:    NewRegistry(),
		session:     NewSession(),
		history:     loadInputHistory(opts.Config.HistoryPath),
		resources:   resHandler,
		detect:      detect,
		newAPI:      opts.NewAPI,
		logger:      logger,
		log:         structured,
		in:          in,
		out:         out,
		render:      renderer,
		version:     opts.Version,
		workDir:     workDir,
		interactive: interactive,
	}
	if c.newAPI == nil {
		c.newAPI = c.defaultAPIFactory
	}
	c.registerBuiltins()
	return c
}

// Session exposes the live session, mainly for tests and one-shot mode.
func (c *Console) Session() *Session {
	return c.session
}

// Run starts the console and blocks until the session ends. It always
// returns a nil-or-recoverable error; command failures never escape the
// loop.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.closeStore()

	c.printWelcome()
	c.detectWorkspace()

	stop := make(chan struct{})
	defer close(stop)
	go c.watchInterrupts(stop)

	var err error
	if c.interactive {
		err = c.runPrompt(ctx, cancel)
	} else {
		err = c.runReader(ctx)
	}
	c.printGoodbye()
	return err
}

// RunLine dispatches a single input line (non-interactive -c mode).
// Workspace detection runs first so one-shot commands see the same
// context an interactive session would.
func (c *Console) RunLine(ctx context.Context, line string) {
	defer c.closeStore()
	c.detectWorkspace()
	c.dispatch(ctx, line)
}

// watchInterrupts terminates the process on SIGINT. The interrupt wins
// unconditionally over any in-flight handler; its remaining work is
// abandoned rather than awaited.
func (c *Console) watchInterrupts(stop <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	select {
	case <-stop:
	case <-sigCh:
		c.printGoodbye()
		os.Exit(0)
	}
}

func (c *Console) runPrompt(ctx context.Context, cancel context.CancelFunc) (err error) {
	var exitRequested atomic.Bool

	var restore func()
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if state, terr := term.GetState(fd); terr == nil {
			restore = func() { _ = term.Restore(fd, state) }
		}
	}
	if restore != nil {
		defer restore()
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(promptExit); ok {
				err = nil
				return
			}
			panic(r)
		}
	}()

	executor := func(in string) {
		if exitRequested.Load() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(in)
		if line == "" {
			return
		}
		c.history.Add(line)
		if exit := c.dispatch(ctx, line); exit {
			exitRequested.Store(true)
			cancel()
			panic(promptExit{})
		}
	}

	p := prompt.New(
		executor,
		c.commandCompleter(),
		prompt.OptionTitle("proxmox-mpc"),
		prompt.OptionPrefix(promptPrefix),
		prompt.OptionHistory(c.history.Recall()),
		prompt.OptionAddKeyBind(
			prompt.KeyBind{
				Key: prompt.ControlC,
				Fn: func(buf *prompt.Buffer) {
					exitRequested.Store(true)
					cancel()
					panic(promptExit{})
				},
			},
			prompt.KeyBind{
				Key: prompt.ControlD,
				Fn: func(buf *prompt.Buffer) {
					if buf.Text() == "" {
						exitRequested.Store(true)
						cancel()
						panic(promptExit{})
					}
				},
			},
		),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			if exitRequested.Load() {
				return true
			}
			select {
			case <-ctx.Done():
				return true
			default:
				return false
			}
		}),
	)

	p.Run()
	return nil
}

func (c *Console) commandCompleter() func(prompt.Document) []prompt.Suggest {
	suggestions := make([]prompt.Suggest, 0, len(c.registry.List()))
	for _, cmd := range c.registry.List() {
		suggestions = append(suggestions, prompt.Suggest{
			Text:        "/" + cmd.Name,
			Description: cmd.Description,
		})
	}
	return func(doc prompt.Document) []prompt.Suggest {
		prefix := strings.TrimLeft(doc.TextBeforeCursor(), " \t")
		if !strings.HasPrefix(prefix, "/") {
			return nil
		}
		return prompt.FilterHasPrefix(suggestions, doc.GetWordBeforeCursor(), true)
	}
}

// runReader is the loop used when stdin is not a terminal (pipes,
// tests). End of input is a normal termination trigger.
func (c *Console) runReader(ctx context.Context) error {
	reader := bufio.NewReader(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(c.out, promptPrefix)
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A final unterminated line still counts as input.
				if strings.TrimSpace(line) != "" {
					c.history.Add(strings.TrimSpace(line))
					if exit := c.dispatch(ctx, line); exit {
						return nil
					}
				}
				fmt.Fprintln(c.out)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			c.history.Add(trimmed)
		}
		if exit := c.dispatch(ctx, line); exit {
			return nil
		}
	}
}

// dispatch classifies one line and routes it. It reports whether the
// loop should stop. Every handler failure is caught here and printed;
// nothing below this boundary terminates the session.
func (c *Console) dispatch(ctx context.Context, input string) bool {
	line := strings.TrimSpace(input)
	cl := classify(line)
	if cl.kind == inputEmpty {
		return false
	}

	c.session.Record(line)

	var execErr error
	exit := false

	switch cl.kind {
	case inputSlash:
		switch {
		case cl.name == "" || !c.registry.Has(cl.name):
			fmt.Fprintf(c.out, "❌ Unknown slash command: /%s\n", cl.name)
			fmt.Fprintln(c.out, slashHint)
		default:
			execErr = c.registry.Execute(cl.name, cl.args, c.session)
			if errors.Is(execErr, ErrExitRequested) {
				exit = true
				execErr = nil
			} else if execErr != nil {
				fmt.Fprintf(c.out, "❌ Error: %v\n", execErr)
			}
		}
	case inputResource:
		if execErr = c.resources.Handle(line); execErr != nil {
			fmt.Fprintf(c.out, "❌ Error: %v\n", execErr)
		}
	case inputBuiltin:
		switch cl.name {
		case "help":
			c.printHelp()
		case "exit", "quit":
			exit = true
		}
	case inputUnknown:
		fmt.Fprintf(c.out, "❌ Unknown command: %s\n", line)
		fmt.Fprintln(c.out, "💡 Type 'help' or '/help' to see available commands.")
	}

	c.recordAudit(ctx, cl, execErr)
	return exit
}

// recordAudit appends the dispatched line to the workspace command log.
// Auditing is supplementary; failures are logged and never surfaced.
func (c *Console) recordAudit(ctx context.Context, cl classified, execErr error) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordCommand(ctx, cl.raw, cl.kind.String(), execErr); err != nil {
		c.log.Error("command audit failed", map[string]interface{}{"error": err.Error()})
	}
}

// detectWorkspace runs startup detection against the working directory.
// Failure of any kind is non-fatal and silent; the workspace is
// supplementary context, not a requirement.
func (c *Console) detectWorkspace() {
	ws, err := c.detect(c.workDir)
	if err != nil {
		c.log.Debug("no workspace detected", map[string]interface{}{"error": err.Error()})
		return
	}
	c.log = c.log.WithWorkspace(ws.Name)
	c.session.SetWorkspace(ws)
	fmt.Fprintf(c.out, "📁 Workspace: %s (host %s, node %s)\n", ws.Name, ws.Config.Host, ws.Config.Node)
	c.openStore(ws)
}

func (c *Console) openStore(ws *workspace.Workspace) {
	st, err := store.Open(ws.StatePath())
	if err != nil {
		c.log.Error("open state db failed", map[string]interface{}{"error": err.Error()})
		return
	}
	c.store = st
}

func (c *Console) closeStore() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log.Error("close state db failed", map[string]interface{}{"error": err.Error()})
		}
		c.store = nil
	}
}

// apiFor returns the cached API client for the session workspace,
// building one on first use.
func (c *Console) apiFor(ws *workspace.Workspace) (API, error) {
	if c.api != nil {
		return c.api, nil
	}
	api, err := c.newAPI(ws)
	if err != nil {
		return nil, err
	}
	c.api = api
	return api, nil
}

func (c *Console) defaultAPIFactory(ws *workspace.Workspace) (API, error) {
	tokenID := ws.Config.TokenID
	secret := ws.Config.TokenSecret
	if tokenID == "" {
		tokenID = c.cfg.TokenID
		secret = c.cfg.TokenSecret
	}
	return proxmox.NewClient(proxmox.Options{
		BaseURL:            ws.Config.Host,
		TokenID:            tokenID,
		Secret:             secret,
		Timeout:            c.cfg.RequestTimeout(),
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
		Logger:             c.logger,
	})
}

// requestContext bounds one API call made from a command handler.
func (c *Console) requestContext() (context.Context, context.CancelFunc) {
	timeout := c.cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (c *Console) printWelcome() {
	fmt.Fprintln(c.out, "🚀 Welcome to Proxmox-MPC Interactive Console!")
	fmt.Fprintln(c.out, "Type 'help' for commands, '/help' for slash commands, 'exit' to quit.")
}

func (c *Console) printGoodbye() {
	elapsed := int(c.session.Elapsed().Seconds())
	fmt.Fprintf(c.out, "👋 Goodbye! Session lasted %ds.\n", elapsed)
}

func (c *Console) printHelp() {
	text := c.helpText()
	if c.render != nil {
		if rendered, err := c.render.Render(text); err == nil {
			fmt.Fprint(c.out, strings.TrimRight(rendered, "\n")+"\n")
			return
		}
	}
	fmt.Fprint(c.out, text)
}

// helpText builds the help screen from the registry listing. Command
// order is registration order, so repeated invocations render
// identically.
func (c *Console) helpText() string {
	var b strings.Builder
	b.WriteString("# Proxmox-MPC Console\n\n")
	b.WriteString("Slash commands:\n\n")
	for _, cmd := range c.registry.List() {
		b.WriteString(fmt.Sprintf("  /%-10s %s\n", cmd.Name, cmd.Description))
	}
	b.WriteString("\nBuilt-in keywords: help, exit, quit\n")
	b.WriteString("Resource commands: create|delete|list|describe <type> [options]\n")
	return b.String()
}
