/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/bytekit/cmd/bytekit/cmd"

func main() {
	cmd.Execute()
}
