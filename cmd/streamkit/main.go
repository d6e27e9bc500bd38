// streamkit applies streaming transforms to stdin and serves them over
// HTTP.
//
// Usage:
//
//	streamkit <command> [flags] [args]
//
// Commands:
//
//	encode   base64-encode stdin
//	decode   base64-decode stdin
//	grep     print the lines of stdin that match a pattern
//	exec     run a process with stdin and stdout attached
//	serve    start the HTTP server
//	version  print build information
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return nil
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stderr)
		return nil
	case "--version":
		args[0] = "version"
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	var g globalFlags
	flagSet := pflag.NewFlagSet("streamkit "+cmd.name, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	g.add(flagSet)
	act := cmd.flags(flagSet)
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printCommandHelp(stderr, cmd, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printCommandHelp(stderr, cmd, flagSet)
		return nil
	}
	if n := flagSet.NArg(); n < cmd.minArgs || (cmd.maxArgs >= 0 && n > cmd.maxArgs) {
		printCommandHelp(stderr, cmd, flagSet)
		return fmt.Errorf("%s: wrong number of arguments", cmd.name)
	}

	if cmd.name == "version" {
		return act(ctx, &app{stdout: stdout, stderr: stderr}, flagSet.Args())
	}

	a, shutdown, err := newApp(ctx, g, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer shutdown()
	return act(ctx, a, flagSet.Args())
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `streamkit %s

Streaming base64, line filtering and process pipes over stdin/stdout
and HTTP.

Usage:
  streamkit <command> [flags] [args]

Commands:
`, version.Get().Short())
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, `
Run "streamkit <command> --help" for the flags of a command.
`)
}

func printCommandHelp(w io.Writer, cmd *command, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  streamkit %s\n\nFlags:\n", cmd.summary, cmd.usage)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
