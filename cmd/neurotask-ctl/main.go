package main

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"neurotask/internal/ipc"
	"neurotask/internal/logging"
	"neurotask/internal/ui"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath(), "Control socket of neurotask-voice")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: neurotask-ctl [--socket path] <%s>\n", strings.Join(ipc.Commands, "|"))
		cli.PrintDefaults()
	}
	cli.Parse()

	logging.Setup(os.Stderr, "ctl", *logLevel)

	cmd := ipc.CmdToggle
	if cli.NArg() > 0 {
		cmd = cli.Arg(0)
	}

	os.Exit(run(*socket, cmd, os.Stdout, os.Stderr))
}

// run sends one command and prints the reply. It returns the exit code.
func run(socket, cmd string, out, errOut io.Writer) int {
	log.Debug("Sending control request", "cmd", cmd, "socket", socket)

	rep, err := ipc.Send(socket, cmd)
	if err != nil {
		if rep.Error == "" {
			log.Debug("Control socket unreachable", "err", err)
			fmt.Fprintln(errOut, "neurotask-voice not running:", err)
		} else {
			fmt.Fprintln(errOut, ui.ErrorStyle.Render(err.Error()))
		}
		return 1
	}

	if cmd == ipc.CmdTranscript {
		fmt.Fprintln(out, ui.Transcript(rep.Lines))
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, ui.Status(rep.Status), ui.MutedStyle.Render("("+rep.State+")"))
	return 0
}
