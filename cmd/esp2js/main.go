// Command esp2js converts ECMA Server Page (ESP) templates into plain
// JavaScript source.
package main

import "os"

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
