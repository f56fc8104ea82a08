package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neurotask/internal/ipc"
	"neurotask/internal/session"
	"neurotask/internal/transcript"
	"neurotask/pkg/util"
)

type statuser interface {
	Status() string
}

// controller answers neurotask-ctl requests. It plays the part of the
// assistant window's buttons.
type controller struct {
	ctx     context.Context
	session *session.Session
	worker  statuser
	log     *transcript.Log

	// unavailable is set when voice cannot work on this machine.
	unavailable error
}

func (c *controller) handle(req ipc.Request) ipc.Reply {
	switch req.Cmd {
	case ipc.CmdStart:
		return c.start()
	case ipc.CmdStop:
		c.session.Stop()
		return c.status()
	case ipc.CmdToggle:
		if c.session.State() == session.Running {
			c.session.Stop()
			return c.status()
		}
		return c.start()
	case ipc.CmdStatus:
		return c.status()
	case ipc.CmdTranscript:
		rep := c.status()
		rep.Lines = util.Keys(c.log.Visible(), transcript.Entry.String)
		return rep
	case ipc.CmdClear:
		c.log.Clear()
		return c.status()
	default:
		return ipc.Fail(fmt.Errorf("unknown command %q (want one of %s)", req.Cmd, strings.Join(ipc.Commands, ", ")))
	}
}

func (c *controller) start() ipc.Reply {
	if c.unavailable != nil {
		return ipc.Fail(fmt.Errorf("Voice features not available: %w", c.unavailable))
	}

	err := c.session.Start(c.ctx)
	switch {
	case errors.Is(err, session.ErrAlreadyRunning):
	case err != nil:
		c.log.System("Error: %v", err)
		return ipc.Fail(err)
	}
	return c.status()
}

func (c *controller) status() ipc.Reply {
	rep := ipc.Reply{OK: true, State: c.session.State().String(), Status: "Ready"}
	if c.worker != nil {
		rep.Status = c.worker.Status()
	}
	if c.unavailable != nil {
		rep.Status = "Unavailable"
	}
	return rep
}
