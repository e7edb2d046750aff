package main

import (
	"github.com/linkak/linkak/cmd"
	_ "github.com/linkak/linkak/cmd/cli"    // register create, stats, migrate
	_ "github.com/linkak/linkak/cmd/server" // register run-server
)

func main() {
	cmd.Execute()
}
