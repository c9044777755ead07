package liha

import (
	"github.com/robotalks/genesis.go/pkg/genesis/device"
)

// Tips returns a copy of the active flags, index 0 is tip 1.
func (l *LiHa) Tips() []bool {
	return append([]bool(nil), l.tips...)
}

// ActiveTips returns the numbers of the active tips.
func (l *LiHa) ActiveTips() []int {
	var tips []int
	for n, active := range l.tips {
		if active {
			tips = append(tips, n+1)
		}
	}
	return tips
}

// TipSelect returns the bitmask of active tips, bit i is tip i+1.
func (l *LiHa) TipSelect() int {
	var mask int
	for n, active := range l.tips {
		if active {
			mask |= 1 << uint(n)
		}
	}
	return mask
}

// ActivateAllTips activates every tip.
func (l *LiHa) ActivateAllTips() {
	for n := range l.tips {
		l.tips[n] = true
	}
}

// ActivateSingleTip activates only the tip.
func (l *LiHa) ActivateSingleTip(tip int) error {
	return l.ActivateTipRange(tip, tip)
}

// ActivateTipRange activates only the tips from start to end inclusive.
func (l *LiHa) ActivateTipRange(start, end int) error {
	if err := l.checkRange(start, end); err != nil {
		return err
	}
	l.clearTips()
	for n := start; n <= end; n++ {
		l.tips[n-1] = true
	}
	return nil
}

// ActivateTips activates only the listed tips.
func (l *LiHa) ActivateTips(tips []int) error {
	for _, tip := range tips {
		if err := l.checkTip("tip", tip); err != nil {
			return err
		}
	}
	l.clearTips()
	for _, tip := range tips {
		l.tips[tip-1] = true
	}
	return nil
}

// SetTipRange sets the status of tips from start to end, other tips are unchanged.
func (l *LiHa) SetTipRange(start, end int, active bool) error {
	if err := l.checkRange(start, end); err != nil {
		return err
	}
	for n := start; n <= end; n++ {
		l.tips[n-1] = active
	}
	return nil
}

func (l *LiHa) clearTips() {
	for n := range l.tips {
		l.tips[n] = false
	}
}

func (l *LiHa) checkTip(field string, tip int) error {
	if err := l.ready(); err != nil {
		return err
	}
	return device.Range{Min: 1, Max: len(l.tips)}.Check(field, tip)
}

func (l *LiHa) checkRange(start, end int) error {
	if err := l.checkTip("start tip", start); err != nil {
		return err
	}
	if err := l.checkTip("end tip", end); err != nil {
		return err
	}
	if start > end {
		return &device.ValidationError{Field: "end tip", Value: float64(end), Min: start, Max: len(l.tips)}
	}
	return nil
}

func (l *LiHa) requireActive() error {
	if len(l.ActiveTips()) == 0 {
		return &device.ValidationError{Field: "tips", Reason: "no active tip"}
	}
	return nil
}
