package liha

import (
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// MoveX moves X to an absolute position.
func (l *LiHa) MoveX(x int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := l.x.Check("x position", x); err != nil {
		return err
	}
	_, err := l.sender.Send(frame.New(l.Device, "PAX", x))
	return err
}

// MoveY moves Y to an absolute position with the current spacing.
func (l *LiHa) MoveY(y int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := l.y.Check("y position", y); err != nil {
		return err
	}
	_, err := l.sender.Send(frame.New(l.Device, "PAY", y, l.pitch))
	return err
}

// SetYSpacing sets the extra spacing between tips used by the next Y moves.
func (l *LiHa) SetYSpacing(space int) error {
	if space < 0 {
		return &device.ValidationError{Field: "y spacing", Value: float64(space), Reason: "must not be negative"}
	}
	l.pitch = l.MinimumPitch + space
	return nil
}

// MoveZ moves the active tips to an absolute position.
func (l *LiHa) MoveZ(z int) error {
	params, err := l.zParams(z)
	if err != nil {
		return err
	}
	_, err = l.sender.Send(frame.Instruction{Device: l.Device, Mnemonic: "PAZ", Params: params})
	return err
}

// MoveZWithSpeed moves the active tips to an absolute position with speed in 0.1 mm/s.
func (l *LiHa) MoveZWithSpeed(z, speed int) error {
	params, err := l.zParams(z)
	if err != nil {
		return err
	}
	if err := device.CheckSpeed(speed); err != nil {
		return err
	}
	params = append(params, frame.Int(speed))
	_, err = l.sender.Send(frame.Instruction{Device: l.Device, Mnemonic: "MAZ", Params: params})
	return err
}

// MoveXYZ moves X, Y and the active tips in one instruction.
func (l *LiHa) MoveXYZ(x, y, z int) error {
	if err := l.ready(); err != nil {
		return err
	}
	if err := l.x.Check("x position", x); err != nil {
		return err
	}
	if err := l.y.Check("y position", y); err != nil {
		return err
	}
	zs, err := l.zParams(z)
	if err != nil {
		return err
	}
	params := append([]frame.Param{frame.Int(x), frame.Int(y), frame.Int(l.pitch)}, zs...)
	_, err = l.sender.Send(frame.Instruction{Device: l.Device, Mnemonic: "PAA", Params: params})
	return err
}

// zParams builds one slot per tip, inactive tips are left absent.
func (l *LiHa) zParams(z int) ([]frame.Param, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if err := l.z.Check("z position", z); err != nil {
		return nil, err
	}
	if err := l.requireActive(); err != nil {
		return nil, err
	}
	raw := frame.Int(l.z.Invert(z))
	params := make([]frame.Param, len(l.tips))
	for n, active := range l.tips {
		if active {
			params[n] = raw
		}
	}
	return params, nil
}
