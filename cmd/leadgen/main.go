package main

import "github.com/vietddude/leadgen/internal/cli"

func main() {
	cli.Execute()
}
