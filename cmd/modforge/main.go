package main

import "github.com/mvp-joe/modforge/internal/cli"

func main() {
	cli.Execute()
}
