package main

import "github.com/gyaneshwarpardhi/spendguard/cmd/spendguard/cmd"

func main() {
	cmd.Execute()
}
