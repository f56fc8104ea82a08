package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"neurotask/internal/tasks"
	"neurotask/internal/ui"
)

const (
	actAdd      = "add"
	actComplete = "complete"
	actDelete   = "delete"
	actQuit     = "quit"
)

func interactive(store *tasks.Store) error {
	fmt.Println(ui.Banner("To-Do List"))

	for {
		fmt.Println()
		fmt.Println(ui.TaskList(store.List()))
		fmt.Println()

		action, err := pickAction(store.Len() > 0)
		if errors.Is(err, huh.ErrUserAborted) || action == actQuit {
			return nil
		}
		if err != nil {
			return fmt.Errorf("form: %w", err)
		}

		switch action {
		case actAdd:
			err = addForm(store)
		case actComplete:
			err = removeForm(store, store.Complete,
				"Complete Task", "Mark '%s' as completed?\n\nThis will remove the task.", "Task completed!")
		case actDelete:
			err = removeForm(store, store.Delete,
				"Delete Task", "Are you sure you want to delete '%s'?", "")
		}

		switch {
		case errors.Is(err, huh.ErrUserAborted):
		case err != nil:
			// the store keeps the change in memory, so the session goes on
			fmt.Println(ui.ErrorStyle.Render(err.Error()))
		}
	}
}

func pickAction(haveTasks bool) (string, error) {
	opts := []huh.Option[string]{huh.NewOption("Add task", actAdd)}
	if haveTasks {
		opts = append(opts, huh.NewOption("Complete task", actComplete), huh.NewOption("Delete task", actDelete))
	}
	opts = append(opts, huh.NewOption("Quit", actQuit))

	var action string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("What next?").Options(opts...).Value(&action),
	)).WithTheme(ui.FormTheme()).Run()

	return action, err
}

func addForm(store *tasks.Store) error {
	var (
		title, desc string
		prio        = tasks.Medium
	)

	prioOpts := make([]huh.Option[tasks.Priority], 0, len(tasks.Priorities))
	for _, p := range tasks.Priorities {
		prioOpts = append(prioOpts, huh.NewOption(p.String(), p))
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Task Title").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("Please enter a task title!")
				}
				return nil
			}).
			Value(&title),
		huh.NewText().
			Title("Description (Optional)").
			Value(&desc),
		huh.NewSelect[tasks.Priority]().
			Title("Priority").
			Options(prioOpts...).
			Value(&prio),
	)).WithTheme(ui.FormTheme()).Run()
	if err != nil {
		return err
	}

	_, err = store.Add(title, desc, prio)
	return err
}

func removeForm(store *tasks.Store, op func(string) (bool, error), title, question, success string) error {
	list := store.List()
	if len(list) == 0 {
		return nil
	}

	opts := make([]huh.Option[string], 0, len(list))
	for _, t := range list {
		opts = append(opts, huh.NewOption(ui.TaskOption(t), t.ID))
	}

	var id string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(opts...).Value(&id),
	)).WithTheme(ui.FormTheme()).Run(); err != nil {
		return err
	}

	task, ok := store.Get(id)
	if !ok {
		return nil
	}

	confirmed := false
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(fmt.Sprintf(question, task.Title)).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	)).WithTheme(ui.FormTheme()).Run(); err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	if _, err := op(id); err != nil {
		return err
	}
	if success != "" {
		fmt.Println(ui.OKStyle.Render(success))
	}
	return nil
}
