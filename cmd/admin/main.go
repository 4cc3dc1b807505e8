// Command admin runs maintenance tasks against the rollcall database:
// migrations, roster imports, student management and token issuing.
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := &commandLine{out: os.Stdout}
	defer cli.close()
	if err := newRootCmd(cli).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cli.close()
		os.Exit(1)
	}
}
