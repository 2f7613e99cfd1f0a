package main

import "github.com/Manu343726/hazardbench/cmd"

func main() {
	cmd.Execute()
}
