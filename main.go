package main

import "license-manager/cmd"

func main() {
	cmd.Execute()
}
