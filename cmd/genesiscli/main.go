package main

import (
	"github.com/robotalks/genesis.go/pkg/cli/sh"
	"github.com/robotalks/genesis.go/pkg/genesis/config"

	_ "github.com/robotalks/genesis.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func main() {
	sh.Main()
}
