package main

import "ah-price-alerts/internal/cli"

func main() {
	cli.Execute()
}
