package main

import (
	"github.com/username/ledgerlink/backend/src/cmd"
)

func main() {
	cmd.Execute()
}
