package main

import "tweetlink/internal/cli"

func main() {
	cli.Execute()
}
