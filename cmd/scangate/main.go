package main

import "github.com/scangate/scangate/pkg/cli"

func main() {
	cli.Execute()
}
