package main

import "github.com/efritz/redikit/internal/cli"

func main() {
	cli.Execute()
}
