package main

import "protocol-cli/cmd"

func main() {
	cmd.Execute()
}
