package main

import (
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"neurotask/internal/logging"
	"neurotask/internal/tasks"
	"neurotask/internal/ui"
)

const usage = `Usage: neurotask-todo [flags] [command]

Commands:
  add [--title T] [--desc D] [--priority P] [title...]
  complete <id>
  delete <id>
  list

Without a command an interactive session starts.

Flags:
`

func main() {
	cli.CommandLine.SetInterspersed(false)
	file := cli.StringP("file", "f", "tasks.json", "Task file")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		cli.PrintDefaults()
	}
	cli.Parse()

	logging.Setup(os.Stderr, "todo", *logLevel)

	store := tasks.Open(*file)
	log.Debug("Opened task file", "path", store.Path(), "tasks", store.Len())

	args := cli.Args()
	if len(args) == 0 {
		if err := interactive(store); err != nil {
			log.Error("Interactive session failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(store, args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// run executes one non-interactive command.
func run(store *tasks.Store, args []string, out io.Writer) error {
	switch cmd, rest := args[0], args[1:]; cmd {
	case "add":
		return add(store, rest, out)
	case "complete", "done":
		return remove(store, rest, out, store.Complete, "Task completed!")
	case "delete", "rm":
		return remove(store, rest, out, store.Delete, "Task deleted.")
	case "list", "ls":
		fmt.Fprintln(out, ui.TaskList(store.List()))
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func add(store *tasks.Store, args []string, out io.Writer) error {
	fs := cli.NewFlagSet("add", cli.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.StringP("title", "t", "", "Task title")
	desc := fs.StringP("desc", "d", "", "Description")
	prio := fs.StringP("priority", "p", tasks.Medium.String(), "Low, Medium, High or Critical")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		*title = strings.Join(fs.Args(), " ")
	}

	p, err := tasks.ParsePriority(*prio)
	if err != nil {
		return err
	}

	task, err := store.Add(*title, *desc, p)
	if errors.Is(err, tasks.ErrEmptyTitle) {
		return errors.New("Please enter a task title!")
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.OKStyle.Render("Added"), ui.ShortID(task.ID), task.Title)
	return nil
}

func remove(store *tasks.Store, args []string, out io.Writer, op func(string) (bool, error), done string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one task id")
	}

	task, ok, err := store.Resolve(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no task with id %q", args[0])
	}

	if _, err := op(task.ID); err != nil {
		return err
	}

	fmt.Fprintln(out, ui.OKStyle.Render(done), task.Title)
	return nil
}
