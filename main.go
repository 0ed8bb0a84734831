package main

import "github.com/vietddude/provisioner/internal/cli"

func main() {
	cli.Execute()
}
