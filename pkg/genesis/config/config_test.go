package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/genesis.go/pkg/genesis/device"
	"github.com/robotalks/genesis.go/pkg/genesis/liha"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "genesis-config")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, "ABCDEFGHIJKLMNOP", conf.Protocol.Channels)
	require.Equal(t, byte('G'), conf.GroupChannel())
	require.Equal(t, 16, conf.Protocol.ChannelOffset)
	require.Equal(t, "A1", conf.LiHa.Device)
	require.Equal(t, "R1", conf.RoMa.Device)
	require.Equal(t, 2*time.Second, conf.CloseDelay)

	ws, err := conf.WashStation()
	require.NoError(t, err)
	require.Equal(t, liha.DefaultWashStation, ws)

	conf.LiHa.Device = "B1"
	require.Equal(t, "A1", NewConfig().LiHa.Device)
}

func TestLoad(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "genesis.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
serial:
  port: /dev/ttyUSB1
  baud: 19200
  read_timeout: 30s
protocol:
  channels: ABC
liha:
  wash_station:
    x: 30
    y: 1100
    z: 700
    air_gap: 10
close_delay: 500ms
`), 0644))

	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB1", conf.Serial.Port)
	require.Equal(t, 19200, conf.Serial.Baud)
	require.Equal(t, 30*time.Second, conf.Serial.ReadTimeout)
	require.Equal(t, "ABC", conf.Protocol.Channels)
	require.Equal(t, byte('G'), conf.GroupChannel())
	require.Equal(t, 500*time.Millisecond, conf.CloseDelay)

	ws, err := conf.WashStation()
	require.NoError(t, err)
	require.Equal(t, liha.WashStation{X: 30, Y: 1100, Z: 700, AirGap: 10}, ws)

	sp := conf.SerialPort()
	require.Equal(t, "/dev/ttyUSB1", sp.Device)
	require.Equal(t, 19200, sp.Baud)
}

func TestLoadMissing(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	conf, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, NewConfig().Protocol, conf.Protocol)
}

func TestLoadInvalid(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	testCases := map[string]string{
		"syntax":        "serial: [",
		"baud":          "serial:\n  baud: 0\n",
		"channels":      "protocol:\n  channels: \"\"\n",
		"group channel": "protocol:\n  group_channel: GH\n",
		"offset":        "protocol:\n  channel_offset: 0\n",
		"device":        "roma:\n  device: R\n",
		"pitch":         "liha:\n  minimum_pitch: -1\n",
		"wash station":  "liha:\n  wash_station:\n    x: 20.5\n    y: 1000\n    z: 750\n",
		"air gap":       "liha:\n  wash_station:\n    x: 20\n    y: 1000\n    z: 750\n    air_gap: -1\n",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "invalid.yaml")
			require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestWashStationIntegral(t *testing.T) {
	conf := NewConfig()
	conf.LiHa.WashStation.Z = 750.25
	_, err := conf.WashStation()
	require.True(t, device.IsValidationError(err))
}

func TestSave(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "sub", "genesis.yaml")
	conf := NewConfig()
	conf.Serial.Port = "COM3"
	conf.Serial.ReadTimeout = time.Minute
	conf.Trace.InstrumentID = "bench-1"
	require.NoError(t, conf.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, conf, loaded)
	require.Equal(t, "bench-1", loaded.InstrumentID())
}
