// Command element-locator finds the UI element under a screen coordinate on an
// Android device and prints a selector for it.
package main

import "github.com/devicelab-dev/element-locator/pkg/cli"

func main() {
	cli.Execute()
}
