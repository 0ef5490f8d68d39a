package controller

type State int

const (
	Idle State = iota
	Running
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Status is a snapshot of the controller for the status command.
type Status struct {
	State     State  `json:"-"`
	StateName string `json:"state"`
	Mode      string `json:"mode"`
	Runs      uint64 `json:"runs"`
	RunID     string `json:"run,omitempty"`
	RestLevel int    `json:"restLevel"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.terminal:
		return Terminal
	case c.active == nil || c.active.finished():
		return Idle
	}
	return Running
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.stateLocked()
	status := Status{
		State:     state,
		StateName: state.String(),
		Mode:      c.mode.Name(),
		Runs:      c.runs,
		RestLevel: c.restLevel,
	}
	if state == Running {
		status.RunID = c.active.id
	}
	return status
}
