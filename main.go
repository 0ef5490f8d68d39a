package main

import "github.com/hoppxi/clickdim/internal/cmd"

func main() {
	cmd.Execute()
}
