// Package env provides facts about the host running the driver.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "genesis.go"

// MachineID retrieves the ID identifying the machine, hashed with the
// application ID so the raw machine ID is never published.
// The hostname is used when the machine ID isn't available.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id
	}
	glog.Warningf("machine id: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "genesis"
}
