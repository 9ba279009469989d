package main

import "github.com/kamusis/adr-cli/cmd"

func main() {
	cmd.Execute()
}
