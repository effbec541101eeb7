package main

import (
	"github.com/athenaeum/moirai/internal/cli"
)

func main() {
	cli.Execute()
}
