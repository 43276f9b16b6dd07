package main

import "github.com/notargets/fvmesh/cmd"

func main() {
	cmd.Execute()
}
