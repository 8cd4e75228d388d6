package main

import (
	"github.com/Ayuga01/Quantara/internal/cli"
)

func main() {
	cli.Execute()
}
