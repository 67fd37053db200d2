package main

import "github.com/kozaktomas/memory-mirror/cmd"

func main() {
	cmd.Execute()
}
