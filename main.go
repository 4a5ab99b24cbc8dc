package main

import "github.com/h77compass/first-repo/cmd"

func main() {
	cmd.Execute()
}
