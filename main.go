package main

import (
	"github.com/AzielCF/az-pricing/cmd"
)

func main() {
	cmd.Execute()
}
