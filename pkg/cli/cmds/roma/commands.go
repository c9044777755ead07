package roma

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/genesis.go/pkg/cli/sh"
	"github.com/robotalks/genesis.go/pkg/genesis"
	"github.com/robotalks/genesis.go/pkg/genesis/roma"
)

// Position is the reported position of the arm.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
	R int `json:"r"`
	G int `json:"g"`
}

// String implements fmt.Stringer.
func (p *Position) String() string {
	return fmt.Sprintf("x=%d y=%d z=%d r=%d g=%d", p.X, p.Y, p.Z, p.R, p.G)
}

func run(names []string, fn func(m *roma.RoMa, args []int) (interface{}, error)) func(*ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		args, err := sh.IntArgs(c, names...)
		if err != nil {
			c.Err(err)
			return
		}
		sh.Do(c, func(inst *genesis.Instrument) (interface{}, error) {
			m, err := inst.RoMa()
			if err != nil {
				return nil, err
			}
			return fn(m, args)
		})
	})
}

var (
	// PosCmd reports positions.
	PosCmd = ishell.Cmd{
		Name:    "roma.pos",
		Aliases: []string{"rp"},
		Help:    "",
		Func: run(nil, func(m *roma.RoMa, args []int) (interface{}, error) {
			var (
				pos Position
				err error
			)
			for _, r := range []struct {
				v  *int
				fn func() (int, error)
			}{
				{&pos.X, m.CurrentX},
				{&pos.Y, m.CurrentY},
				{&pos.Z, m.CurrentZ},
				{&pos.R, m.CurrentR},
				{&pos.G, m.CurrentG},
			} {
				if *r.v, err = r.fn(); err != nil {
					return nil, err
				}
			}
			return &pos, nil
		}),
	}

	// MoveXCmd moves X.
	MoveXCmd = ishell.Cmd{
		Name:    "roma.x",
		Aliases: []string{"rx"},
		Help:    "X(0.1mm)",
		Func: run([]string{"X"}, func(m *roma.RoMa, args []int) (interface{}, error) {
			return nil, m.MoveX(args[0])
		}),
	}

	// MoveYCmd moves Y.
	MoveYCmd = ishell.Cmd{
		Name:    "roma.y",
		Aliases: []string{"ry"},
		Help:    "Y(0.1mm)",
		Func: run([]string{"Y"}, func(m *roma.RoMa, args []int) (interface{}, error) {
			return nil, m.MoveY(args[0])
		}),
	}

	// MoveZCmd moves Z.
	MoveZCmd = ishell.Cmd{
		Name:    "roma.z",
		Aliases: []string{"rz"},
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
				m, err := inst.RoMa()
				if err != nil {
					return nil, err
				}
				if len(c.Args) < 2 {
					return nil, m.MoveZ(args[0])
				}
				return nil, m.MoveZWithSpeed(args[0], speed)
			})
		}),
	}

	// RotateCmd rotates the gripper.
	RotateCmd = ishell.Cmd{
		Name:    "roma.rotate",
		Aliases: []string{"rr"},
		Help:    "DEGREES",
		Func: run([]string{"DEGREES"}, func(m *roma.RoMa, args []int) (interface{}, error) {
			return nil, m.RotateTo(args[0])
		}),
	}

	// GripCmd moves the gripper fingers.
	GripCmd = ishell.Cmd{
		Name:    "roma.grip",
		Aliases: []string{"rg"},
		Help:    "G(0.1mm)",
		Func: run([]string{"G"}, func(m *roma.RoMa, args []int) (interface{}, error) {
			return nil, m.MoveGripper(args[0])
		}),
	}
)

func init() {
	sh.AddCmds(
		&PosCmd,
		&MoveXCmd,
		&MoveYCmd,
		&MoveZCmd,
		&RotateCmd,
		&GripCmd,
	)
}
