package main

import "github.com/geekodo/kudos-portal/cmd"

func main() {
	cmd.Execute()
}
