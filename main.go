package main

import "cmdhub/cli"

func main() {
	cli.Execute()
}
