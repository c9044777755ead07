package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/genesis.go/pkg/genesis"
	"github.com/robotalks/genesis.go/pkg/genesis/config"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell      *ishell.Shell
	Config     *config.Config
	Instrument *genesis.Instrument
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&StatusCmd,
		&SendCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Instrument == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Do runs an operation on the instrument and prints the result.
// A fatal error closes the connection.
func Do(c *ishell.Context, fn func(*genesis.Instrument) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Instrument == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	res, err := fn(s.Instrument)
	if err != nil {
		s.fail(err)
		c.Err(err)
		return err
	}
	if s.OutputJSON {
		out, err := json.Marshal(res)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	if res == nil {
		c.Println("OK")
		return nil
	}
	c.Println(res)
	return nil
}

// IntArgs parses the arguments as integral numbers.
func IntArgs(c *ishell.Context, names ...string) ([]int, error) {
	if len(c.Args) < len(names) {
		return nil, fmt.Errorf("%s required", strings.Join(names[len(c.Args):], " "))
	}
	vals := make([]int, len(names))
	for n, name := range names {
		f, err := strconv.ParseFloat(c.Args[n], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", name, err)
		}
		if vals[n], err = device.Integral(name, f); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// OptionalInt parses an optional argument at index, def is used if absent.
func OptionalInt(c *ishell.Context, index int, name string, def int) (int, error) {
	if len(c.Args) <= index {
		return def, nil
	}
	f, err := strconv.ParseFloat(c.Args[index], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return device.Integral(name, f)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens and sets up the instrument.
func (s *Shell) Connect() error {
	inst, err := genesis.Open(s.Config)
	if err != nil {
		return err
	}
	if err := inst.Setup(); err != nil {
		inst.Close()
		return err
	}
	s.Disconnect()
	s.Instrument = inst
	name := s.Config.Serial.Port
	if s.Config.Simulate {
		name = "sim"
	}
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", name))
	return nil
}

// Disconnect closes the instrument.
func (s *Shell) Disconnect() error {
	if s.Instrument == nil {
		return nil
	}
	err := s.Instrument.Close()
	s.Instrument = nil
	s.Shell.SetPrompt(unconnectedPrompt)
	return err
}

func (s *Shell) fail(err error) {
	s.Instrument.Transport().Fail(err)
	if s.Instrument.Transport().Closed() {
		s.Shell.Println("connection closed, reconnect required")
		s.Disconnect()
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Println("Connecting ...")
		}
		if err := s.Connect(); err != nil {
			log.Fatalf("connect failed: %v", err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Status summarizes the connection.
type Status struct {
	Firmware string `json:"firmware"`
	LiHa     bool   `json:"liha"`
	PosID    bool   `json:"pos_id"`
	RoMa     bool   `json:"roma"`
	Channels string `json:"free_channels"`
}

// String implements fmt.Stringer.
func (st *Status) String() string {
	return fmt.Sprintf("%s LiHa=%v PosID=%v RoMa=%v channels=%s",
		st.Firmware, st.LiHa, st.PosID, st.RoMa, st.Channels)
}

// Reply is the result of a raw instruction.
type Reply struct {
	Device  string `json:"device"`
	Status  int    `json:"status"`
	Content string `json:"content"`
}

// String implements fmt.Stringer.
func (r *Reply) String() string {
	return fmt.Sprintf("%s %d %q", r.Device, r.Status, r.Content)
}

var (
	// ConnectCmd connects the instrument.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.Serial.Port = c.Args[0]
				s.Config.Simulate = false
			}
			if err := s.Connect(); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the instrument.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Disconnect(); err != nil {
				c.Err(err)
			}
		},
	}

	// StatusCmd shows the instrument status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			Do(c, func(inst *genesis.Instrument) (interface{}, error) {
				return &Status{
					Firmware: inst.Firmware(),
					LiHa:     inst.LiHaConnected(),
					PosID:    inst.PosIDConnected(),
					RoMa:     inst.RoMaConnected(),
					Channels: string(inst.Transport().Channels().Free()),
				}, nil
			})
		}),
	}

	// SendCmd sends a raw instruction, e.g. "send M1 RFV 0".
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "DEVICE MNEMONIC [PARAM...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("DEVICE MNEMONIC required"))
				return
			}
			ins := frame.Instruction{Device: c.Args[0], Mnemonic: c.Args[1]}
			for _, p := range c.Args[2:] {
				if p == "-" {
					ins.Params = append(ins.Params, frame.Absent)
				} else {
					ins.Params = append(ins.Params, frame.Str(p))
				}
			}
			Do(c, func(inst *genesis.Instrument) (interface{}, error) {
				resp, err := inst.Transport().Send(ins)
				if err != nil {
					return nil, err
				}
				return &Reply{Device: resp.Device, Status: resp.StatusCode(), Content: resp.ContentString()}, nil
			})
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := config.LoadDefault()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).WithAutoConnect(conf.Simulate || conf.Serial.Port != "").Run(flag.Args()...)
}
