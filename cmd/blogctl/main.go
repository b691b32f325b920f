package main

import "github.com/dmitrijs2005/gophblog/internal/blogctl"

func main() {
	blogctl.Execute()
}
