package main

import (
	"nytbestsellers/cmd/bestsellers/commands"
	"nytbestsellers/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
