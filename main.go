package main

import "github.com/RinLeung/canvas2/cmd"

func main() {
	cmd.Execute()
}
