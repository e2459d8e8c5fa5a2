/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/solidrange/solidrange-form-flow-sub000/cmd"

func main() {
	cmd.Execute()
}
