// The main package for the exposure-checker executable.
package main

import (
	"github.com/JakeFAU/blog-exposure-checker/cmd"
)

func main() {
	cmd.Execute()
}
