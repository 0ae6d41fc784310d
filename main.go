package main

import "github.com/jfmyers9/lastfm-auth/cmd"

func main() {
	cmd.Execute()
}
