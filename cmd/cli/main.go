package main

import (
	"github.com/rulerace/rulerace-server/internal/cli"
)

func main() {
	cli.Execute()
}
