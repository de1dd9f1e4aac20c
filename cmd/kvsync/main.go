package main

import (
	"os"

	"github.com/systmms/kvsync/cmd/kvsync/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := commands.NewApp()
	root := commands.NewRootCommand(app, commands.BuildInfo{Version: version, Commit: commit, Date: date})
	os.Exit(app.Exit(root.Execute()))
}
