package liha

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/genesis.go/pkg/genesis/comm"
	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/frame"
)

// recorder records instructions and replies with canned content.
type recorder struct {
	replies map[string]string
	calls   []string
}

func (r *recorder) Send(ins frame.Instruction) (*frame.Response, error) {
	r.calls = append(r.calls, ins.String())
	return &frame.Response{Device: ins.Device, Content: []byte(r.replies[ins.String()])}, nil
}

func (r *recorder) SendGroup(inss []frame.Instruction, ch byte) ([]*frame.Response, error) {
	names := make([]string, len(inss))
	resps := make([]*frame.Response, len(inss))
	for n, ins := range inss {
		names[n] = ins.String()
		resps[n] = &frame.Response{Device: ins.Device}
	}
	r.calls = append(r.calls, string(ch)+":"+strings.Join(names, " "))
	return resps, nil
}

func (r *recorder) reset() {
	r.calls = nil
}

func setupReplies(tips string) map[string]string {
	return map[string]string{
		"A1RNT1": tips,
		"A1RPX5": "4000",
		"A1RPY5": "3000",
		"A1RPZ5": "2100",
	}
}

func newTestLiHa(t *testing.T) (*LiHa, *recorder) {
	r := &recorder{replies: setupReplies("8")}
	l := New(r)
	require.NoError(t, l.Setup())
	r.reset()
	return l, r
}

func requireInvalid(t *testing.T, err error) {
	require.Error(t, err)
	require.True(t, device.IsValidationError(err), "unexpected error %v", err)
	require.True(t, comm.IsFatal(err))
}

func TestSetup(t *testing.T) {
	r := &recorder{replies: setupReplies("8")}
	l := New(r)
	require.NoError(t, l.Setup())
	require.Equal(t, []string{"A1RNT1", "A1RPX5", "A1RPY5", "A1RPZ5"}, r.calls)
	require.Equal(t, 8, l.TipsQuantity())
	require.Equal(t, 4000, l.XRange())
	require.Equal(t, 3000, l.YRange())
	require.Equal(t, 2100, l.ZRange())
	require.Equal(t, DefaultMinimumPitch, l.Pitch())
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, l.ActiveTips())
	require.Equal(t, 255, l.TipSelect())
}

func TestSetupInvalidReplies(t *testing.T) {
	for _, tips := range []string{"0", "x", ""} {
		t.Run(tips, func(t *testing.T) {
			l := New(&recorder{replies: setupReplies(tips)})
			err := l.Setup()
			require.IsType(t, &device.SetupError{}, err)
			require.True(t, comm.IsFatal(err))
		})
	}
	replies := setupReplies("8")
	replies["A1RPZ5"] = "?"
	err := New(&recorder{replies: replies}).Setup()
	require.IsType(t, &device.SetupError{}, err)
}

func TestNotSetup(t *testing.T) {
	r := &recorder{}
	l := New(r)
	require.Equal(t, device.ErrNotSetup, l.MoveX(0))
	require.Equal(t, device.ErrNotSetup, l.MoveZ(0))
	require.Equal(t, device.ErrNotSetup, l.Aspirate(10, 9))
	require.Equal(t, device.ErrNotSetup, l.ActivateSingleTip(1))
	require.Empty(t, r.calls)
}

func TestTipSelect(t *testing.T) {
	l, _ := newTestLiHa(t)
	require.NoError(t, l.ActivateTips([]int{2, 4, 6, 8}))
	require.Equal(t, 170, l.TipSelect())
	require.NoError(t, l.ActivateSingleTip(1))
	require.Equal(t, 1, l.TipSelect())
	require.Equal(t, []int{1}, l.ActiveTips())
	require.NoError(t, l.ActivateTipRange(3, 5))
	require.Equal(t, 28, l.TipSelect())
	require.NoError(t, l.SetTipRange(8, 8, true))
	require.Equal(t, 156, l.TipSelect())
	require.NoError(t, l.SetTipRange(3, 4, false))
	require.Equal(t, []bool{false, false, false, false, true, false, false, true}, l.Tips())
	l.ActivateAllTips()
	require.Equal(t, 255, l.TipSelect())
}

func TestTipActivationInvalid(t *testing.T) {
	l, _ := newTestLiHa(t)
	requireInvalid(t, l.ActivateSingleTip(0))
	requireInvalid(t, l.ActivateSingleTip(9))
	requireInvalid(t, l.ActivateTipRange(5, 3))
	requireInvalid(t, l.ActivateTips([]int{1, 9}))
	requireInvalid(t, l.SetTipRange(0, 2, true))
	require.Equal(t, 255, l.TipSelect())
}

func TestMoveXY(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.MoveX(4000))
	require.NoError(t, l.MoveY(-800))
	require.NoError(t, l.SetYSpacing(10))
	require.NoError(t, l.MoveY(3000))
	require.Equal(t, []string{"A1PAX4000", "A1PAY-800,90", "A1PAY3000,100"}, r.calls)

	r.reset()
	requireInvalid(t, l.MoveX(-1))
	requireInvalid(t, l.MoveX(4001))
	requireInvalid(t, l.MoveY(-801))
	requireInvalid(t, l.MoveY(3001))
	requireInvalid(t, l.SetYSpacing(-1))
	require.Empty(t, r.calls)
	require.Equal(t, 100, l.Pitch())
}

func TestMoveZ(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateTips([]int{1, 3}))
	require.NoError(t, l.MoveZ(0))
	require.NoError(t, l.MoveZ(2100))
	require.NoError(t, l.MoveZ(100))
	require.Equal(t, []string{
		"A1PAZ2100,,2100,,,,,",
		"A1PAZ0,,0,,,,,",
		"A1PAZ2000,,2000,,,,,",
	}, r.calls)

	r.reset()
	requireInvalid(t, l.MoveZ(-1))
	requireInvalid(t, l.MoveZ(2101))
	require.Empty(t, r.calls)
}

func TestMoveZWithSpeed(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateSingleTip(8))
	require.NoError(t, l.MoveZWithSpeed(2100, 4000))
	require.Equal(t, []string{"A1MAZ,,,,,,,0,4000"}, r.calls)

	r.reset()
	requireInvalid(t, l.MoveZWithSpeed(0, 4001))
	requireInvalid(t, l.MoveZWithSpeed(0, -1))
	require.Empty(t, r.calls)
}

func TestMoveXYZ(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateTipRange(1, 2))
	require.NoError(t, l.MoveXYZ(100, 200, 100))
	require.Equal(t, []string{"A1PAA100,200,90,2000,2000,,,,,,"}, r.calls)

	r.reset()
	requireInvalid(t, l.MoveXYZ(4001, 0, 0))
	requireInvalid(t, l.MoveXYZ(0, -900, 0))
	requireInvalid(t, l.MoveXYZ(0, 0, 3000))
	require.Empty(t, r.calls)
}

func TestZMovesWithoutActiveTips(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.SetTipRange(1, 8, false))
	requireInvalid(t, l.MoveZ(100))
	requireInvalid(t, l.MoveZWithSpeed(100, 1000))
	requireInvalid(t, l.MoveXYZ(100, 200, 100))
	require.Empty(t, r.calls)
}

func TestCurrentPosition(t *testing.T) {
	l, r := newTestLiHa(t)
	r.replies["A1RPX0"] = "120"
	r.replies["A1RPY0"] = "300,90"
	r.replies["A1RPZ0"] = "2100,2000,2100,2100,2100,2100,2100,0"

	x, err := l.CurrentX()
	require.NoError(t, err)
	require.Equal(t, 120, x)

	y, space, err := l.CurrentY()
	require.NoError(t, err)
	require.Equal(t, 300, y)
	require.Equal(t, 90, space)

	z, err := l.CurrentZ()
	require.NoError(t, err)
	require.Equal(t, []int{0, 100, 0, 0, 0, 0, 0, 2100}, z)

	r.replies["A1RPX0"] = "?"
	_, err = l.CurrentX()
	require.IsType(t, &device.ReportError{}, err)
}

func TestDetectLiquid(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateTipRange(1, 2))
	require.NoError(t, l.DetectLiquid(100, 2000, 50))
	require.Equal(t, []string{"A1MDT3,50,2000,100"}, r.calls)

	r.reset()
	requireInvalid(t, l.DetectLiquid(100, 2200, 50))
	require.NoError(t, l.SetTipRange(1, 8, false))
	requireInvalid(t, l.DetectLiquid(100, 2000, 50))
	require.Empty(t, r.calls)
}

func TestIsNoLiquid(t *testing.T) {
	require.True(t, IsNoLiquid(&comm.ProtocolError{Device: "A1", Status: frame.ErrCodeNoLiquid}))
	require.False(t, IsNoLiquid(&comm.ProtocolError{Device: "A1", Status: 3}))
	require.False(t, IsNoLiquid(comm.ErrTimeout))
}

func TestRawVolume(t *testing.T) {
	testCases := []struct {
		volume float64
		raw    int
		valid  bool
	}{
		{1000, 3150, true},
		{100, 315, true},
		{0.32, 1, true},
		{10.5, 33, true},
		{1001, 0, false},
		{0.3, 0, false},
		{0, 0, false},
		{-5, 0, false},
	}
	for _, tc := range testCases {
		raw, err := RawVolume(tc.volume)
		if tc.valid {
			require.NoError(t, err, "volume %v", tc.volume)
			require.Equal(t, tc.raw, raw, "volume %v", tc.volume)
		} else {
			requireInvalid(t, err)
		}
	}
}

func TestAspirateDispense(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateTips([]int{1, 3}))
	require.NoError(t, l.Aspirate(1000, 9))
	require.NoError(t, l.Dispense(100, 20))
	require.Equal(t, []string{
		"G:D1S9OP3150R D3S9OP3150R",
		"G:D1S20OD315R D3S20OD315R",
	}, r.calls)

	r.reset()
	requireInvalid(t, l.Aspirate(1001, 9))
	requireInvalid(t, l.Aspirate(100, 41))
	requireInvalid(t, l.Dispense(100, -1))
	require.NoError(t, l.SetTipRange(1, 8, false))
	requireInvalid(t, l.Aspirate(100, 9))
	require.Empty(t, r.calls)
}

func TestAspirateGroupChannel(t *testing.T) {
	l, r := newTestLiHa(t)
	l.GroupChannel = 'Z'
	require.NoError(t, l.ActivateSingleTip(2))
	require.NoError(t, l.Aspirate(10, 9))
	require.Equal(t, []string{"Z:D2S9OP31R"}, r.calls)
}

func TestWash(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateTipRange(1, 2))
	require.NoError(t, l.Wash())
	require.Equal(t, []string{
		"A1PAA20,1000,90,1350,1350,,,,,,",
		"G:D1YIP100OS9OD100R D2YIP100OS9OD100R",
		"G:D1OV3600A0R D2OV3600A0R",
		"G:D1BR D2BR",
		"O1AFI1,38,18",
		"G:D1M500IR D2M500IR",
		"G:D1IV3600P1500OA0R D2IV3600P1500OA0R",
		"A1PAZ2100,2100,,,,,,",
	}, r.calls)
}

func TestWashAtWithAirGap(t *testing.T) {
	l, r := newTestLiHa(t)
	require.NoError(t, l.ActivateSingleTip(1))
	require.NoError(t, l.WashAt(WashStation{X: 100, Y: 200, Z: 0, AirGap: 10}))
	require.Equal(t, "A1PAA100,200,90,2100,,,,,,,", r.calls[0])
	require.Equal(t, "G:D1S5OP31R", r.calls[len(r.calls)-2])
	require.Equal(t, "A1PAZ2100,,,,,,,", r.calls[len(r.calls)-1])

	r.reset()
	requireInvalid(t, l.WashAt(WashStation{X: 5000, Y: 0, Z: 0}))
	require.Empty(t, r.calls)
}
