package main

import "github.com/lloydmeta/notesync/app/cmd"

func main() {
	cmd.Execute()
}
