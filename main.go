package main

import "github.com/theirongolddev/costcmp/cmd"

func main() {
	cmd.Execute()
}
