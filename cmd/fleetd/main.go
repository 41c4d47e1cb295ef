package main

import "github.com/bryanfrank99/mk-api-wire/cmd/fleetd/cmd"

func main() {
	cmd.Execute()
}
