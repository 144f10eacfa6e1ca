package main

import "github.com/haulware/stopscan/cmd/stopscan/cmd"

func main() {
	cmd.Execute()
}
