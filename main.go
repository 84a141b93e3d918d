package main

import (
	"github.com/hushtape/confessionserver/cmd"
)

func main() {
	cmd.Execute()
}
