package main

import "focusmate/internal/cli"

func main() {
	cli.Execute()
}
