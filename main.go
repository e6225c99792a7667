package main

import "trackviz/cmd"

func main() {
	cmd.Execute()
}
