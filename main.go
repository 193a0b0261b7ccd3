package main

import "github.com/atikulmunna/logscope/internal/cmd"

func main() {
	cmd.Execute()
}
