package main

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"

	"github.com/charmbracelet/huh"
	cli "github.com/spf13/pflag"

	"neurotask/internal/launcher"
	"neurotask/internal/logging"
	"neurotask/internal/ui"
	"neurotask/pkg/util"
)

const quit = "quit"

func main() {
	toolsFile := cli.StringP("tools", "t", "", "YAML file overriding the tool list")
	list := cli.Bool("list", false, "Print the tools and exit")
	runID := cli.StringP("run", "r", "", "Launch a tool by id and exit")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logging.Setup(os.Stderr, "launcher", *logLevel)

	reg := launcher.Default()
	if *toolsFile != "" {
		var err error
		if reg, err = launcher.Load(*toolsFile); err != nil {
			log.Error("Failed to load tools", "file", *toolsFile, "err", err)
			os.Exit(1)
		}
	}

	l := launcher.New(reg, util.ExecutableDir())

	fmt.Println(ui.Banner("NeuroTask: MultiAI"))
	fmt.Println()

	switch {
	case *list:
		fmt.Println(ui.ToolList(reg.Tools))
		return
	case *runID != "":
		tool, ok := reg.Find(*runID)
		if !ok {
			log.Error("Unknown tool", "id", *runID)
			os.Exit(1)
		}
		if !launch(l, tool) {
			os.Exit(1)
		}
		return
	}

	for {
		id, err := pick(reg)
		if errors.Is(err, huh.ErrUserAborted) || id == quit {
			return
		}
		if err != nil {
			log.Error("Selection failed", "err", err)
			os.Exit(1)
		}

		tool, _ := reg.Find(id)
		launch(l, tool)
	}
}

func pick(reg launcher.Registry) (string, error) {
	opts := make([]huh.Option[string], 0, len(reg.Tools)+1)
	for _, t := range reg.Tools {
		opts = append(opts, huh.NewOption(t.Name+" - "+t.Description, t.ID))
	}
	opts = append(opts, huh.NewOption("Quit", quit))

	var id string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select an AI Tool to Launch:").
			Description("You can run multiple tools simultaneously").
			Options(opts...).
			Value(&id),
	)).WithTheme(ui.FormTheme()).Run()

	return id, err
}

func launch(l *launcher.Launcher, tool launcher.Tool) bool {
	res, err := l.Launch(tool)
	switch {
	case errors.Is(err, launcher.ErrToolNotFound):
		fmt.Println(ui.ErrorStyle.Render("File Not Found"), fmt.Sprintf("Could not find %s", tool.Binary))
		return false
	case err != nil:
		fmt.Println(ui.ErrorStyle.Render("Error"), fmt.Sprintf("Failed to launch: %v", err))
		return false
	case res.Foreground:
		return true
	}

	fmt.Println(ui.OKStyle.Render("Success"), fmt.Sprintf("Launched %s! (pid %d)", tool.Name, res.PID))
	return true
}
