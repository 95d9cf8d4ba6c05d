package main

import "quest-localizer/internal/cli"

func main() {
	cli.Execute()
}
