package main

import "github.com/arklib/ark/cmd"

func main() {
	cmd.Execute()
}
