package main

import "github.com/moffa90/go-autoprog/cmd/autoprog/cmd"

func main() {
	cmd.Execute()
}
