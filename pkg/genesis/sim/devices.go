package sim

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Status codes used by the simulator.
const (
	statusInvalidCommand = 2
	statusInvalidOperand = frame.ErrCodeInvalidOperand
	statusNotImplemented = 5
)

const (
	maxSpeed      = 4000
	maxPlunger    = 3150
	minY          = -800
	defaultPitch  = 90
	rangeQuery    = 5
	positionQuery = 0
)

type axis struct {
	min, max int
	pos      []int
}

func newAxis(max, slots, initial int) *axis {
	a := &axis{max: max, pos: make([]int, slots)}
	for n := range a.pos {
		a.pos[n] = initial
	}
	return a
}

func (a *axis) valid(v int) bool {
	return v >= a.min && v <= a.max
}

type arm struct {
	tips  int
	pitch int
	axes  map[byte]*axis
}

func newLiHa(tips int) *arm {
	a := &arm{
		tips:  tips,
		pitch: defaultPitch,
		axes: map[byte]*axis{
			'X': newAxis(4000, 1, 0),
			'Y': newAxis(3000, 1, 0),
			'Z': newAxis(2100, tips, 2100),
		},
	}
	a.axes['Y'].min = minY
	return a
}

func newRoMa() *arm {
	a := &arm{
		axes: map[byte]*axis{
			'X': newAxis(4000, 1, 0),
			'Y': newAxis(3000, 1, 0),
			'Z': newAxis(2400, 1, 2400),
			'R': newAxis(3600, 1, 0),
			'G': newAxis(1400, 1, 0),
		},
	}
	a.axes['Y'].min = minY
	return a
}

type diluter struct {
	volume int
}

var strokeRe = regexp.MustCompile(`O([PD])(\d+)`)

func (d *diluter) execute(cmd string) int {
	for _, m := range strokeRe.FindAllStringSubmatch(cmd, -1) {
		v, _ := strconv.Atoi(m[2])
		if m[1] == "P" {
			if d.volume+v > maxPlunger {
				return statusInvalidOperand
			}
			d.volume += v
		} else if d.volume -= v; d.volume < 0 {
			d.volume = 0
		}
	}
	return 0
}

// params parses integer slots, absent slots are reported as not present.
func params(ins frame.Instruction) ([]int, []bool, bool) {
	vals := make([]int, len(ins.Params))
	present := make([]bool, len(ins.Params))
	for n, p := range ins.Params {
		if !p.Present {
			continue
		}
		v, err := strconv.Atoi(p.Value)
		if err != nil {
			return nil, nil, false
		}
		vals[n], present[n] = v, true
	}
	return vals, present, true
}

func (s *Simulator) execute(ins frame.Instruction) (int, string) {
	switch {
	case ins.Device == "M1":
		return s.master(ins)
	case ins.Device == "O1":
		if ins.Mnemonic == "AFI" {
			return 0, ""
		}
		return statusInvalidCommand, ""
	case ins.Device[0] == 'D':
		return s.diluter(ins)
	}
	a := s.arms[ins.Device]
	if a == nil {
		return statusNotImplemented, ""
	}
	vals, present, ok := params(ins)
	if !ok {
		return statusInvalidOperand, ""
	}
	return a.execute(ins.Mnemonic, vals, present, s.Liquid)
}

func (s *Simulator) master(ins frame.Instruction) (int, string) {
	switch ins.Mnemonic {
	case "RHW":
		return 0, "0"
	case "RFV":
		return 0, s.Firmware
	case "PIS":
		return 0, ""
	case "REE":
		return 0, s.Presence
	}
	return statusInvalidCommand, ""
}

func (s *Simulator) diluter(ins frame.Instruction) (int, string) {
	tip, err := strconv.Atoi(ins.Device[1:])
	liha := s.arms["A1"]
	if err != nil || liha == nil || tip < 1 || tip > liha.tips {
		return statusNotImplemented, ""
	}
	d := s.diluters[ins.Device]
	if d == nil {
		d = &diluter{}
		s.diluters[ins.Device] = d
	}
	return d.execute(ins.Body()), ""
}

func (a *arm) execute(mnemonic string, vals []int, present []bool, liquid bool) (int, string) {
	if len(mnemonic) == 3 && (mnemonic[:2] == "RP" || mnemonic[:2] == "PA") {
		if ax := a.axes[mnemonic[2]]; ax != nil {
			if mnemonic[:2] == "RP" {
				return a.report(mnemonic[2], ax, vals)
			}
			return a.move(mnemonic[2], ax, vals, present)
		}
	}
	switch mnemonic {
	case "RNT":
		if a.tips == 0 {
			return statusInvalidCommand, ""
		}
		return 0, strconv.Itoa(a.tips)
	case "MAZ":
		if len(vals) < 2 || !present[len(vals)-1] || vals[len(vals)-1] > maxSpeed {
			return statusInvalidOperand, ""
		}
		n := len(vals) - 1
		return a.moveZ(vals[:n], present[:n]), ""
	case "PAA":
		if a.tips == 0 || len(vals) < 3 {
			return statusInvalidCommand, ""
		}
		if !a.axes['X'].valid(vals[0]) || !a.axes['Y'].valid(vals[1]) {
			return statusInvalidOperand, ""
		}
		if status := a.moveZ(vals[3:], present[3:]); status != 0 {
			return status, ""
		}
		a.axes['X'].pos[0], a.axes['Y'].pos[0], a.pitch = vals[0], vals[1], vals[2]
		return 0, ""
	case "MDT":
		if a.tips == 0 || len(vals) != 4 {
			return statusInvalidOperand, ""
		}
		if !liquid {
			return frame.ErrCodeNoLiquid, ""
		}
		z := a.axes['Z']
		for n := 0; n < a.tips; n++ {
			if vals[0]&(1<<uint(n)) != 0 {
				z.pos[n] = (vals[2] + vals[3]) / 2
			}
		}
		return 0, ""
	}
	return statusInvalidCommand, ""
}

func (a *arm) report(name byte, ax *axis, vals []int) (int, string) {
	if len(vals) != 1 {
		return statusInvalidOperand, ""
	}
	switch vals[0] {
	case rangeQuery:
		return 0, strconv.Itoa(ax.max)
	case positionQuery:
		if name == 'Y' && a.tips > 0 {
			return 0, strconv.Itoa(ax.pos[0]) + "," + strconv.Itoa(a.pitch)
		}
		fields := make([]string, len(ax.pos))
		for n, v := range ax.pos {
			fields[n] = strconv.Itoa(v)
		}
		return 0, strings.Join(fields, ",")
	}
	return statusInvalidOperand, ""
}

func (a *arm) move(name byte, ax *axis, vals []int, present []bool) (int, string) {
	if name == 'Z' {
		return a.moveZ(vals, present), ""
	}
	if len(vals) == 0 || !present[0] || !ax.valid(vals[0]) {
		return statusInvalidOperand, ""
	}
	ax.pos[0] = vals[0]
	if name == 'Y' && a.tips > 0 && len(vals) > 1 && present[1] {
		a.pitch = vals[1]
	}
	return 0, ""
}

func (a *arm) moveZ(vals []int, present []bool) int {
	z := a.axes['Z']
	if len(vals) > len(z.pos) {
		return statusInvalidOperand
	}
	for n, v := range vals {
		if present[n] && !z.valid(v) {
			return statusInvalidOperand
		}
	}
	for n, v := range vals {
		if present[n] {
			z.pos[n] = v
		}
	}
	return 0
}
