package liha

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/genesis.go/pkg/cli/sh"
	"github.com/robotalks/genesis.go/pkg/genesis"
	"github.com/robotalks/genesis.go/pkg/genesis/liha"
)

// Position is the reported position of the arm.
type Position struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Space int   `json:"space"`
	Z     []int `json:"z"`
}

// String implements fmt.Stringer.
func (p *Position) String() string {
	return fmt.Sprintf("x=%d y=%d space=%d z=%v", p.X, p.Y, p.Space, p.Z)
}

// Info describes the arm.
type Info struct {
	Tips   int   `json:"tips"`
	Active []int `json:"active"`
	XRange int   `json:"x_range"`
	YRange int   `json:"y_range"`
	ZRange int   `json:"z_range"`
	Pitch  int   `json:"pitch"`
}

// String implements fmt.Stringer.
func (i *Info) String() string {
	return fmt.Sprintf("tips=%d active=%v range=%d,%d,%d pitch=%d",
		i.Tips, i.Active, i.XRange, i.YRange, i.ZRange, i.Pitch)
}

// run parses integral arguments and calls fn with the arm.
func run(names []string, fn func(l *liha.LiHa, args []int) (interface{}, error)) func(*ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		args, err := sh.IntArgs(c, names...)
		if err != nil {
			c.Err(err)
			return
		}
		sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
			l, err := inst.LiHa()
			if err != nil {
				return nil, err
			}
			return fn(l, args)
		})
	})
}

// parseTips parses "all", "N", "A-B" or "N,M,...".
func parseTips(l *liha.LiHa, arg string) error {
	if arg == "all" {
		l.ActivateAllTips()
		return nil
	}
	if parts := strings.SplitN(arg, "-", 2); len(parts) == 2 {
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid start tip %q", parts[0])
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("invalid end tip %q", parts[1])
		}
		return l.ActivateTipRange(start, end)
	}
	var tips []int
	for _, f := range strings.Split(arg, ",") {
		tip, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("invalid tip %q", f)
		}
		tips = append(tips, tip)
	}
	if len(tips) == 1 {
		return l.ActivateSingleTip(tips[0])
	}
	return l.ActivateTips(tips)
}

var (
	// InfoCmd shows the arm.
	InfoCmd = ishell.Cmd{
		Name:    "liha.info",
		Aliases: []string{"li"},
		Help:    "",
		Func: run(nil, func(l *liha.LiHa, args []int) (interface{}, error) {
			return &Info{
				Tips:   l.TipsQuantity(),
				Active: l.ActiveTips(),
				XRange: l.XRange(),
				YRange: l.YRange(),
				ZRange: l.ZRange(),
				Pitch:  l.Pitch(),
			}, nil
		}),
	}

	// PosCmd reports positions.
	PosCmd = ishell.Cmd{
		Name:    "liha.pos",
		Aliases: []string{"lp"},
		Help:    "",
		Func: run(nil, func(l *liha.LiHa, args []int) (interface{}, error) {
			var (
				pos Position
				err error
			)
			if pos.X, err = l.CurrentX(); err != nil {
				return nil, err
			}
			if pos.Y, pos.Space, err = l.CurrentY(); err != nil {
				return nil, err
			}
			if pos.Z, err = l.CurrentZ(); err != nil {
				return nil, err
			}
			return &pos, nil
		}),
	}

	// MoveXCmd moves X.
	MoveXCmd = ishell.Cmd{
		Name:    "liha.x",
		Aliases: []string{"lx"},
		Help:    "X(0.1mm)",
		Func: run([]string{"X"}, func(l *liha.LiHa, args []int) (interface{}, error) {
			return nil, l.MoveX(args[0])
		}),
	}

	// MoveYCmd moves Y.
	MoveYCmd = ishell.Cmd{
		Name:    "liha.y",
		Aliases: []string{"ly"},
		Help:    "Y(0.1mm)",
		Func: run([]string{"Y"}, func(l *liha.LiHa, args []int) (interface{}, error) {
			return nil, l.MoveY(args[0])
		}),
	}

	// SpaceCmd sets Y spacing.
	SpaceCmd = ishell.Cmd{
		Name:    "liha.space",
		Aliases: []string{"lsp"},
		Help:    "SPACE(0.1mm)",
		Func: run([]string{"SPACE"}, func(l *liha.LiHa, args []int) (interface{}, error) {
			return nil, l.SetYSpacing(args[0])
		}),
	}

	// MoveZCmd moves active tips.
	MoveZCmd = ishell.Cmd{
		Name:    "liha.z",
		Aliases: []string{"lz"},
		Help:    "Z(0.1mm) [SPEED(0.1mm/s)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			args, err := sh.IntArgs(c, "Z")
			if err != nil {
				c.Err(err)
				return
			}
			speed, err := sh.OptionalInt(c, 1, "SPEED", 0)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
				l, err := inst.LiHa()
				if err != nil {
					return nil, err
				}
				if len(c.Args) < 2 {
					return nil, l.MoveZ(args[0])
				}
				return nil, l.MoveZWithSpeed(args[0], speed)
			})
		}),
	}

	// MoveXYZCmd moves all axes.
	MoveXYZCmd = ishell.Cmd{
		Name:    "liha.xyz",
		Aliases: []string{"lxyz"},
		Help:    "X Y Z",
		Func: run([]string{"X", "Y", "Z"}, func(l *liha.LiHa, args []int) (interface{}, error) {
			return nil, l.MoveXYZ(args[0], args[1], args[2])
		}),
	}

	// TipsCmd activates tips.
	TipsCmd = ishell.Cmd{
		Name:    "liha.tips",
		Aliases: []string{"lt"},
		Help:    "all|N|A-B|N,M,...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TIPS required"))
				return
			}
			sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
				l, err := inst.LiHa()
				if err != nil {
					return nil, err
				}
				if err := parseTips(l, c.Args[0]); err != nil {
					return nil, err
				}
				return fmt.Sprintf("active %v select %d", l.ActiveTips(), l.TipSelect()), nil
			})
		}),
	}

	// DetectCmd detects liquid.
	DetectCmd = ishell.Cmd{
		Name:    "liha.detect",
		Aliases: []string{"ld"},
		Help:    "ZSTART ZMAX SUBMERGE",
		Func: run([]string{"ZSTART", "ZMAX", "SUBMERGE"}, func(l *liha.LiHa, args []int) (interface{}, error) {
			return nil, l.DetectLiquid(args[0], args[1], args[2])
		}),
	}

	// AspirateCmd aspirates.
	AspirateCmd = ishell.Cmd{
		Name:    "liha.aspirate",
		Aliases: []string{"la"},
		Help:    "VOLUME(uL) [SPEED]",
		Func:    stroke((*liha.LiHa).Aspirate),
	}

	// DispenseCmd dispenses.
	DispenseCmd = ishell.Cmd{
		Name:    "liha.dispense",
		Aliases: []string{"lds"},
		Help:    "VOLUME(uL) [SPEED]",
		Func:    stroke((*liha.LiHa).Dispense),
	}

	// WashCmd washes tips.
	WashCmd = ishell.Cmd{
		Name:    "liha.wash",
		Aliases: []string{"lw"},
		Help:    "[X Y Z]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var station []int
			if len(c.Args) > 0 {
				var err error
				if station, err = sh.IntArgs(c, "X", "Y", "Z"); err != nil {
					c.Err(err)
					return
				}
			}
			sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
				l, err := inst.LiHa()
				if err != nil {
					return nil, err
				}
				if station == nil {
					return nil, l.Wash()
				}
				ws := l.WashStation
				ws.X, ws.Y, ws.Z = station[0], station[1], station[2]
				return nil, l.WashAt(ws)
			})
		}),
	}
)

func stroke(fn func(*liha.LiHa, float64, int) error) func(*ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		if len(c.Args) < 1 {
			c.Err(fmt.Errorf("VOLUME required"))
			return
		}
		volume, err := strconv.ParseFloat(c.Args[0], 64)
		if err != nil {
			c.Err(fmt.Errorf("invalid VOLUME: %v", err))
			return
		}
		speed, err := sh.OptionalInt(c, 1, "SPEED", liha.DefaultDiluterSpeed)
		if err != nil {
			c.Err(err)
			return
		}
		sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
			l, err := inst.LiHa()
			if err != nil {
				return nil, err
			}
			return nil, fn(l, volume, speed)
		})
	})
}

func init() {
	sh.AddCmds(
		&InfoCmd,
		&PosCmd,
		&MoveXCmd,
		&MoveYCmd,
		&SpaceCmd,
		&MoveZCmd,
		&MoveXYZCmd,
		&TipsCmd,
		&DetectCmd,
		&AspirateCmd,
		&DispenseCmd,
		&WashCmd,
	)
}
