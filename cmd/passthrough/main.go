package main

import (
	"github.com/gaugeflow/passthrough/cmd/passthrough/cmd"
)

func main() {
	cmd.Execute()
}
