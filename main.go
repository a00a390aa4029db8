package main

import "github.com/theirongolddev/mfgdash/cmd"

func main() {
	cmd.Execute()
}
