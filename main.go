/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "vkcommands/cmd"

func main() {
	cmd.Execute()
}
