package main

import (
	"github.com/voltspan/feederflow/cmd/feederflow/commands"
)

func main() {
	commands.Execute()
}
