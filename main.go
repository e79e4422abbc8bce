package main

import "github.com/audiolibrelab/sweepbench/cmd"

func main() {
	cmd.Execute()
}
