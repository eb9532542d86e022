package main

import "github.com/mb-events/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
