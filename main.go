// The main package for the sitegraph executable.
package main

import "github.com/JakeFAU/sitegraph-crawler/cmd"

func main() {
	cmd.Execute()
}
