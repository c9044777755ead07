package liha

import (
	"fmt"
	"math"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// Volume conversion: raw = floor(µL * 315 / 100).
const (
	volumeScaleNum = 315
	volumeScaleDen = 100
	// MinRawVolume and MaxRawVolume bound a single stroke of a diluter.
	MinRawVolume = 1
	MaxRawVolume = 3150
	// MaxDiluterSpeed is the highest diluter speed code.
	MaxDiluterSpeed = 40
	// DefaultDiluterSpeed is the speed used by Aspirate and Dispense callers
	// without a preference.
	DefaultDiluterSpeed = 9
)

// WashStation is where tips are washed.
type WashStation struct {
	X, Y, Z int
	// AirGap is aspirated after washing, in µL. Zero skips it.
	AirGap float64
}

// DefaultWashStation is the wash station of a standard worktable.
var DefaultWashStation = WashStation{X: 20, Y: 1000, Z: 750}

var (
	washPrime = []string{"YIP100OS9OD100R", "OV3600A0R", "BR"}
	washRinse = []string{"M500IR", "IV3600P1500OA0R"}
	washPump  = frame.New("O1", "AFI", 1, 38, 18)
)

const airGapSpeed = 5

// RawVolume converts µL to diluter steps.
func RawVolume(volume float64) (int, error) {
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return 0, &device.ValidationError{Field: "volume", Value: volume, Reason: "not a number"}
	}
	raw := math.Floor(volume * volumeScaleNum / volumeScaleDen)
	if raw < MinRawVolume || raw > MaxRawVolume {
		return 0, &device.ValidationError{
			Field:  "volume",
			Value:  volume,
			Reason: fmt.Sprintf("%v raw units must be within the range %d to %d", raw, MinRawVolume, MaxRawVolume),
		}
	}
	return int(raw), nil
}

// DiluterDevice returns the address of the diluter of a tip.
func DiluterDevice(tip int) string {
	return fmt.Sprintf("D%d", tip)
}

// DetectLiquid lowers the active tips from zStart down to at most zMax until
// liquid is detected, then submerges by submerge.
// The instrument fails with "No liquid detected" if the surface isn't found,
// see IsNoLiquid.
func (l *LiHa) DetectLiquid(zStart, zMax, submerge int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := l.z.Check("z start", zStart); err != nil {
		return err
	}
	if err := l.z.Check("z max", zMax); err != nil {
		return err
	}
	if err := l.z.Check("submerge depth", submerge); err != nil {
		return err
	}
	if err := l.requireActive(); err != nil {
		return err
	}
	_, err := l.sender.Send(frame.New(l.Device, "MDT",
		l.TipSelect(), submerge, l.z.Invert(zStart), l.z.Invert(zMax)))
	return err
}

// IsNoLiquid indicates err is the instrument reporting no liquid detected.
// The caller may retry with adjusted bounds after reconnecting.
func IsNoLiquid(err error) bool {
	code, ok := comm.StatusCode(err)
	return ok && code == frame.ErrCodeNoLiquid
}

// Aspirate draws volume µL into every active tip simultaneously.
func (l *LiHa) Aspirate(volume float64, speed int) error {
	return l.stroke("OP", volume, speed)
}

// Dispense expels volume µL from every active tip simultaneously.
func (l *LiHa) Dispense(volume float64, speed int) error {
	return l.stroke("OD", volume, speed)
}

func (l *LiHa) stroke(op string, volume float64, speed int) error {
	if err := l.ready(); err != nil {
		return err
	}
	raw, err := RawVolume(volume)
	if err != nil {
		return err
	}
	if err := (device.Range{Max: MaxDiluterSpeed}).Check("diluter speed", speed); err != nil {
		return err
	}
	if err := l.requireActive(); err != nil {
		return err
	}
	_, err = l.diluters(fmt.Sprintf("S%d%s%dR", speed, op, raw))
	return err
}

// diluters sends the same command to the diluters of all active tips.
func (l *LiHa) diluters(cmd string) ([]*frame.Response, error) {
	tips := l.ActiveTips()
	inss := make([]frame.Instruction, len(tips))
	for n, tip := range tips {
		inss[n] = frame.Raw(DiluterDevice(tip), cmd)
	}
	return l.sender.SendGroup(inss, l.GroupChannel)
}

// Wash washes the active tips at WashStation.
func (l *LiHa) Wash() error {
	return l.WashAt(l.WashStation)
}

// WashAt washes the active tips at the station.
func (l *LiHa) WashAt(station WashStation) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := l.requireActive(); err != nil {
		return err
	}
	if err := l.MoveXYZ(station.X, station.Y, station.Z); err != nil {
		return err
	}
	for _, cmd := range washPrime {
		if _, err := l.diluters(cmd); err != nil {
			return err
		}
	}
	if _, err := l.sender.Send(washPump); err != nil {
		return err
	}
	for _, cmd := range washRinse {
		if _, err := l.diluters(cmd); err != nil {
			return err
		}
	}
	if station.AirGap > 0 {
		if err := l.Aspirate(station.AirGap, airGapSpeed); err != nil {
			return err
		}
	}
	return l.MoveZ(0)
}
