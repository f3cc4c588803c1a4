package main

import "ragqa/internal/cli"

func main() {
	cli.Execute()
}
