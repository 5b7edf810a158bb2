package main

import "github.com/vietddude/newsdesk/internal/cli"

func main() {
	cli.Execute()
}
