package main

import "github.com/wardenhq/warden/internal/cli"

func main() {
	cli.Execute()
}
