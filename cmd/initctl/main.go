package main

import (
	"github.com/gmscreen/initiative/internal/cli"
)

func main() {
	cli.Execute()
}
