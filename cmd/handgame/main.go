package main

import "github.com/mcoot/handgame/internal/cli"

func main() {
	cli.Execute()
}
