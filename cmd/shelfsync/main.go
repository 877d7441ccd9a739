package main

import "shelfsync.io/shelfsync/cmd/shelfsync/cmd"

func main() {
	cmd.Execute()
}
