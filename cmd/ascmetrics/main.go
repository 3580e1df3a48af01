package main

import "github.com/aevon-lab/asc-analytics/internal/cli"

func main() {
	cli.Execute()
}
