package main

import "node-wallet/cmd/node-cli/cmd"

func main() {
	cmd.Execute()
}
