// Command gracht-echo is a small demo binary exercising the gracht
// client and server runtimes end to end over a real TCP link: "serve"
// runs an echo protocol server, "call" connects to one and invokes it.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

func main() {
	parser := flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)

	addCmd(parser, "serve", "Serve the echo protocol over TCP", `
Listen on the configured address and dispatch the echo protocol until
signaled to exit.
`, &cmdServe{})

	addCmd(parser, "call", "Invoke the echo protocol against a running server", `
Connect to a running gracht-echo server and invoke its echo action once,
printing the response.
`, &cmdCall{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addCmd(to interface {
	AddCommand(string, string, string, interface{}) (*flags.Command, error)
}, name, short, long string, data interface{}) *flags.Command {
	cmd, err := to.AddCommand(name, short, long, data)
	if err != nil {
		panic(fmt.Sprintf("failed to add flags parser command %q: %v", name, err))
	}
	return cmd
}
