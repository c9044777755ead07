package genesis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/config"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
	"github.com/robotalks/genesis.go/pkg/genesis/liha"
	"github.com/robotalks/genesis.go/pkg/genesis/sim"
)

func newTestInstrument(t *testing.T) (*Instrument, *sim.Simulator) {
	cfg := config.NewConfig()
	cfg.CloseDelay = 0
	cfg.Serial.ReadTimeout = time.Second
	s := sim.New()
	return New(s, cfg), s
}

func TestSetup(t *testing.T) {
	inst, s := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	require.Equal(t, sim.DefaultFirmware, inst.Firmware())
	require.True(t, inst.LiHaConnected())
	require.True(t, inst.PosIDConnected())
	require.True(t, inst.RoMaConnected())

	reqs := s.Requests()
	require.Len(t, reqs, 4)
	for n, expect := range []string{"M1RHW", "M1RFV0", "M1PIS", "M1REE"} {
		require.Equal(t, expect, reqs[n].Instruction.String())
		require.Equal(t, byte('A'), reqs[n].Channel)
	}
	require.Len(t, s.Acks(), 4)
	require.NoError(t, inst.Close())
}

func TestSetupUnsupportedFirmware(t *testing.T) {
	inst, s := newTestInstrument(t)
	s.Firmware = "FREEDOM EVO"
	err := inst.Setup()
	var se *device.SetupError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "firmware", se.What)
	require.True(t, inst.Transport().Closed())
}

func TestSetupEquipment(t *testing.T) {
	inst, s := newTestInstrument(t)
	s.Presence = "@A@"
	require.NoError(t, inst.Setup())
	require.True(t, inst.LiHaConnected())
	require.False(t, inst.PosIDConnected())
	require.True(t, inst.RoMaConnected())

	inst, s = newTestInstrument(t)
	s.Presence = "@@A"
	require.NoError(t, inst.Setup())
	_, err := inst.RoMa()
	require.True(t, errors.Is(err, ErrNotConnected))
	require.False(t, inst.Transport().Closed())
}

func TestDevicesBeforeSetup(t *testing.T) {
	inst, _ := newTestInstrument(t)
	_, err := inst.LiHa()
	require.Equal(t, device.ErrNotSetup, err)
	_, err = inst.RoMa()
	require.Equal(t, device.ErrNotSetup, err)
}

func TestLiHaOverSimulator(t *testing.T) {
	inst, s := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	l, err := inst.LiHa()
	require.NoError(t, err)
	require.Equal(t, sim.DefaultTips, l.TipsQuantity())

	require.NoError(t, l.ActivateTips([]int{1, 2}))
	require.NoError(t, l.MoveXYZ(100, 200, 300))
	require.Equal(t, []int{1800, 1800, 2100, 2100, 2100, 2100, 2100, 2100}, s.Position("A1", 'Z'))

	z, err := l.CurrentZ()
	require.NoError(t, err)
	require.Equal(t, []int{300, 300, 0, 0, 0, 0, 0, 0}, z)

	require.NoError(t, l.Aspirate(100, liha.DefaultDiluterSpeed))
	require.Equal(t, 315, s.Plunger("D1"))
	require.Equal(t, 315, s.Plunger("D2"))
	require.Zero(t, s.Plunger("D3"))
	require.NoError(t, l.Dispense(50, liha.DefaultDiluterSpeed))
	require.Equal(t, 158, s.Plunger("D1"))

	require.NoError(t, l.Wash())
	require.Equal(t, []byte(comm.DefaultChannels), inst.Transport().Channels().Free())
	require.False(t, inst.Transport().Closed())
}

func TestLiHaNoLiquid(t *testing.T) {
	inst, s := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	l, err := inst.LiHa()
	require.NoError(t, err)
	s.Liquid = false
	err = l.DetectLiquid(100, 2000, 10)
	require.True(t, liha.IsNoLiquid(err))
	require.True(t, inst.Transport().Closed())
	require.Equal(t, comm.ErrClosed, l.MoveX(0))
}

func TestLiHaGroupFailure(t *testing.T) {
	inst, s := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	l, err := inst.LiHa()
	require.NoError(t, err)
	s.Inject(sim.Fault{Device: "D2", ChannelShift: 1})
	err = l.Aspirate(10, 9)
	var pe *comm.ProtocolError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "D2", pe.Device)
	require.True(t, inst.Transport().Closed())
}

func TestValidationClosesThroughFail(t *testing.T) {
	inst, _ := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	l, err := inst.LiHa()
	require.NoError(t, err)
	err = l.Aspirate(2000, 9)
	require.True(t, device.IsValidationError(err))
	require.False(t, inst.Transport().Closed())
	inst.Transport().Fail(err)
	require.True(t, inst.Transport().Closed())
}

func TestRoMaOverSimulator(t *testing.T) {
	inst, s := newTestInstrument(t)
	require.NoError(t, inst.Setup())
	m, err := inst.RoMa()
	require.NoError(t, err)
	require.NoError(t, m.MoveZ(400))
	require.Equal(t, []int{2000}, s.Position("R1", 'Z'))
	require.NoError(t, m.RotateTo(90))
	r, err := m.CurrentR()
	require.NoError(t, err)
	require.Equal(t, 900, r)
	z, err := m.CurrentZ()
	require.NoError(t, err)
	require.Equal(t, 400, z)
}

func TestRawExchange(t *testing.T) {
	inst, _ := newTestInstrument(t)
	resp, err := inst.Transport().Send(frame.New("M1", "RFV", 0))
	require.NoError(t, err)
	require.Equal(t, sim.DefaultFirmware, resp.ContentString())
}
