package main

import "github.com/openxm/marketd/internal/cli"

func main() {
	cli.Execute()
}
