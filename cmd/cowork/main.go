package main // Entry point package

import "github.com/iliyamo/coworking-booking/internal/cli"

func main() {
	cli.Execute()
}
