package main

import "github.com/stakedo/stakedo/internal/cli"

func main() {
	cli.Execute()
}
