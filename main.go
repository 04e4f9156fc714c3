package main

import (
	"github/chapool/gas-relay/cmd"
)

func main() {
	cmd.Execute()
}
