// Package interactive provides the operator console of the dashboard.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"
	"github.com/modbee/modbee-dash/pkg/board"
	"github.com/modbee/modbee-dash/pkg/command"
	"github.com/modbee/modbee-dash/pkg/connection"
	"github.com/modbee/modbee-dash/pkg/discovery"
	"github.com/modbee/modbee-dash/pkg/render"
	"github.com/modbee/modbee-dash/pkg/snapshot"
	"github.com/modbee/modbee-dash/pkg/wifi"
)

// Connection is the live channel as seen by the console.
type Connection interface {
	State() connection.State
	Endpoint() string
	ConnectionID() string
	RetryAttempts() int
	RetryDelay() time.Duration
}

// Calibrator captures the editable fields and sends them to the device.
type Calibrator interface {
	Submit() (snapshot.Calibration, error)
}

// CredentialSubmitter posts Wi-Fi credentials to the device.
type CredentialSubmitter interface {
	Submit(ctx context.Context, ssid, password string) wifi.Result
}

// Finder looks for controllers on the local network.
type Finder interface {
	FindAll(ctx context.Context) ([]*discovery.Controller, error)
}

// Mirror exposes the last snapshot received.
type Mirror interface {
	Current() (snapshot.Snapshot, bool)
	Updates() uint64
}

// Deps are the dashboard components the console drives. Finder may be nil.
type Deps struct {
	Board      *board.Board
	Connection Connection
	Calibrator Calibrator
	WiFi       CredentialSubmitter
	Finder     Finder
	Mirror     Mirror
}

// Console handles the interactive mode of modbee-dash.
type Console struct {
	deps Deps
	rl   *readline.Instance
	out  io.Writer
}

// New creates a console reading from the terminal.
func New(deps Deps) (*Console, error) {
	c := &Console{deps: deps}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "modbee> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    c.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl
	c.out = rl.Stdout()
	return c, nil
}

func newConsole(deps Deps, out io.Writer) *Console {
	return &Console{deps: deps, out: out}
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with the command line.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop. cancel is called when the
// operator quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the operator asked
// to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "show", "s":
		c.cmdShow(args)

	case "set":
		c.cmdSet(args)

	case "save":
		c.cmdSave()

	case "reset", "revert":
		c.cmdReset()

	case "wifi":
		c.cmdWiFi(ctx, args)

	case "status":
		c.cmdStatus()

	case "discover":
		c.cmdDiscover(ctx)

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Modbee Dashboard Commands:
  Display:
    show [io|calibration|status] - Show fields (default: all)
    status                       - Show connection status

  Calibration:
    set <field> <value>          - Edit a calibration field (e.g. adc_low_0 120)
    save                         - Send all calibration fields to the device
    reset                        - Discard unsaved edits

  Network:
    wifi <ssid> [password]       - Send Wi-Fi credentials to the device
    discover                     - Find controllers on the local network

  General:
    help                         - Show this help
    quit                         - Exit the dashboard`)
}

func (c *Console) completer() *readline.PrefixCompleter {
	fields := func(string) []string { return render.EditableFields() }
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("show",
			readline.PcItem("io"),
			readline.PcItem("calibration"),
			readline.PcItem("status"),
		),
		readline.PcItem("set", readline.PcItemDynamic(fields)),
		readline.PcItem("save"),
		readline.PcItem("reset"),
		readline.PcItem("wifi"),
		readline.PcItem("status"),
		readline.PcItem("discover"),
		readline.PcItem("quit"),
	)
}

// cmdShow handles the show command.
func (c *Console) cmdShow(args []string) {
	var kinds []board.Kind
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "io":
			kinds = []board.Kind{board.KindDisplay}
		case "calibration", "cal":
			kinds = []board.Kind{board.KindEditable}
		case "status":
			kinds = []board.Kind{board.KindStatus}
		case "all":
		default:
			fmt.Fprintf(c.out, "Unknown section: %s (use io, calibration or status)\n", args[0])
			return
		}
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, f := range c.deps.Board.Fields(kinds...) {
		mark := ""
		if f.Edited {
			mark = "*"
		}
		value := f.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, value, mark)
	}
	_ = tw.Flush()

	if edited := c.deps.Board.Edited(); len(edited) > 0 {
		fmt.Fprintf(c.out, "%d unsaved edit(s), marked with *\n", len(edited))
	}
}

// cmdSet handles the set command.
func (c *Console) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: set <field> <value>")
		return
	}

	if err := c.deps.Board.Edit(args[0], strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintf(c.out, "Cannot edit: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s = %s (unsaved)\n", args[0], strings.Join(args[1:], " "))
}

// cmdSave handles the save command.
func (c *Console) cmdSave() {
	cal, err := c.deps.Calibrator.Submit()
	if err != nil {
		if fieldErrs := command.FieldErrors(err); len(fieldErrs) > 0 {
			fmt.Fprintln(c.out, "Calibration not sent, fix these fields:")
			for _, fe := range fieldErrs {
				fmt.Fprintf(c.out, "  %s: %s (%q)\n", fe.Field, fe.Reason, fe.Value)
			}
			return
		}
		fmt.Fprintf(c.out, "Calibration not sent: %v\n", err)
		return
	}

	c.deps.Board.Commit()
	fmt.Fprintf(c.out, "Calibration sent (adc_low %v, dac_low %v, ...)\n", cal.ADCLow, cal.DACLow)
}

// cmdReset handles the reset command.
func (c *Console) cmdReset() {
	edited := c.deps.Board.Edited()
	c.deps.Board.Revert()
	fmt.Fprintf(c.out, "Discarded %d edit(s)\n", len(edited))
}

// cmdWiFi handles the wifi command.
func (c *Console) cmdWiFi(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: wifi <ssid> [password]")
		return
	}
	ssid := args[0]
	password := strings.Join(args[1:], " ")

	fmt.Fprintf(c.out, "Sending credentials for %s...\n", ssid)
	res := c.deps.WiFi.Submit(ctx, ssid, password)
	c.deps.Board.Set(render.TargetWiFiStatus, res.Text)

	fmt.Fprintln(c.out, res.Text)
	if res.Err != nil {
		fmt.Fprintf(c.out, "  (%v)\n", res.Err)
	}
}

// cmdStatus handles the status command.
func (c *Console) cmdStatus() {
	conn := c.deps.Connection

	fmt.Fprintln(c.out, "\nDashboard Status:")
	fmt.Fprintln(c.out, "-------------------------------------------")
	fmt.Fprintf(c.out, "  Connection: %s\n", conn.State())
	fmt.Fprintf(c.out, "  Endpoint:   %s\n", conn.Endpoint())
	if id := conn.ConnectionID(); id != "" {
		fmt.Fprintf(c.out, "  Conn ID:    %s\n", id)
	}
	if n := conn.RetryAttempts(); n > 0 {
		fmt.Fprintf(c.out, "  Retries:    %d (every %s)\n", n, conn.RetryDelay())
	}

	s, ok := c.deps.Mirror.Current()
	if !ok {
		fmt.Fprintln(c.out, "  Snapshots:  none received")
	} else {
		fmt.Fprintf(c.out, "  Snapshots:  %d\n", c.deps.Mirror.Updates())
		fmt.Fprintf(c.out, "  Network:    %s %s %s\n", s.Network.Mode, s.Network.SSID, s.Network.IP)
	}

	if v, ok := c.deps.Board.Get(render.TargetWiFiStatus); ok && v != "" {
		fmt.Fprintf(c.out, "  Wi-Fi:      %s\n", v)
	}
	if edited := c.deps.Board.Edited(); len(edited) > 0 {
		fmt.Fprintf(c.out, "  Unsaved:    %s\n", strings.Join(edited, ", "))
	}
}

// cmdDiscover handles the discover command.
func (c *Console) cmdDiscover(ctx context.Context) {
	if c.deps.Finder == nil {
		fmt.Fprintln(c.out, "Discovery is not available")
		return
	}

	fmt.Fprintln(c.out, "Discovering controllers...")
	found, err := c.deps.Finder.FindAll(ctx)
	if errors.Is(err, discovery.ErrNotFound) {
		fmt.Fprintln(c.out, "No controllers found")
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Discovery error: %v\n", err)
		return
	}

	fmt.Fprintf(c.out, "Found %d controller(s):\n", len(found))
	for idx, ctrl := range found {
		fmt.Fprintf(c.out, "  %d. %s (host: %s, model: %s, mode: %s %s)\n",
			idx+1, ctrl.Instance, ctrl.Host(), ctrl.Model, ctrl.Mode, ctrl.SSID)
	}
	fmt.Fprintln(c.out, "Restart with -host <host> to connect to another controller")
}
