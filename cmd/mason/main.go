package main

import "github.com/oshokin/mason/cmd/mason/cmd"

func main() {
	cmd.Execute()
}
