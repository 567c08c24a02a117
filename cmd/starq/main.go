package main

import "github.com/jaskrrish/go-starq/internal/cli"

func main() {
	cli.Execute()
}
