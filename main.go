/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ilyasvvv/BridgeAZ-sub000/cmd"

func main() {
	cmd.Execute()
}
