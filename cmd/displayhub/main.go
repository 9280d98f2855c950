package main

import (
	"github.com/displayhub/displayhub/cmd/displayhub/commands"
)

func main() {
	commands.Execute()
}
