package main

import "github.com/notargets/felocate/cmd"

func main() {
	cmd.Execute()
}
