package main

import "github.com/Oscarts/backery2-app-sub005/internal/adapters/cli"

func main() {
	cli.Execute()
}
