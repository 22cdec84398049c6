package main

import (
	"github.com/vegaprotocol/amounts/cmd"
)

func main() {
	cmd.Execute()
}
