package controller

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/shared"
)

// Run activates name and waits for its completion. It is the headless
// counterpart of the Bubble Tea loop, used by the CLI.
func (c *Controller) Run(name string) (models.Outcome, error) {
	cmd, err := c.Activate(name)
	if err != nil {
		return outcomeOf(err), err
	}
	return c.Complete(cmd().(Result)), nil
}

// RunSelect runs a fanout and waits for every load. Loads run concurrently
// and are completed in arrival order.
func (c *Controller) RunSelect(name string) (map[string]models.Outcome, error) {
	cmd, err := c.Select(name)
	if err != nil {
		return nil, err
	}

	cmds := flatten(cmd)
	results := make(chan Result, len(cmds))
	for _, cmd := range cmds {
		go func() { results <- cmd().(Result) }()
	}

	outcomes := make(map[string]models.Outcome, len(cmds))
	for range cmds {
		res := <-results
		outcomes[res.Action] = c.Complete(res)
	}
	return outcomes, nil
}

// flatten unwraps the batch built by [Controller.Select] without running the loads.
func flatten(cmd tea.Cmd) []tea.Cmd {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Cmd{func() tea.Msg { return msg }}
	}
	var out []tea.Cmd
	for _, c := range batch {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func outcomeOf(err error) models.Outcome {
	switch {
	case errors.Is(err, shared.ErrRefused):
		return models.Refused
	case errors.Is(err, shared.ErrActionBusy):
		return models.Ignored
	default:
		return models.Failed
	}
}
