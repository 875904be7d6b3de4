// Command gasync syncs local files with Google Apps Script projects.
package main

import "github.com/papapumpkin/gasync/cmd"

func main() {
	cmd.Execute()
}
