package main

import "github.com/ironsheep/siftkit/internal/cli"

func main() {
	cli.Execute()
}
