// Package all registers all shell commands.
package all

import (
	// shell commands
	_ "github.com/robotalks/genesis.go/pkg/cli/cmds/liha"
	_ "github.com/robotalks/genesis.go/pkg/cli/cmds/roma"
)
