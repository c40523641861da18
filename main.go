package main

import "threatcat/cmd"

func main() {
	cmd.Execute()
}
