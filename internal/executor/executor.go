package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Cmd accumulates the argument list and environment for one child process.
type Cmd struct {
	Binary string
	args   []string
	envs   []string
}

func (c *Cmd) Add(args ...string) {
	c.args = append(c.args, args...)
}

func (c *Cmd) Env(env string) {
	c.envs = append(c.envs, env)
}

func (c *Cmd) Command() []string {
	return c.args
}

// Environ returns the extra environment entries to layer over the parent's.
func (c *Cmd) Environ() []string {
	return c.envs
}

func (c *Cmd) String() string {
	return c.Binary + " " + strings.Join(c.args, " ")
}

type Executor struct {
	logger *log.Entry
}

func NewExecutor(logger *log.Entry) *Executor {
	return &Executor{logger: logger}
}

// Run executes the command synchronously and returns its stdout.
// Stderr is folded into the returned error on failure.
func (e *Executor) Run(ctx context.Context, command *Cmd) (string, error) {
	e.logger.Debugf("> %s", command)

	start := time.Now()

	var outb, errb bytes.Buffer

	cmd := exec.CommandContext(ctx, command.Binary, command.args...)
	cmd.Stdout = &outb
	cmd.Stderr = &errb
	cmd.Env = append(os.Environ(), command.envs...)

	err := cmd.Run()

	e.logger.WithField("elapsed", time.Since(start)).Debugf("< %s", command.Binary)

	if err != nil {
		return outb.String(), errors.Wrapf(err, "running '%s': %s", command, strings.TrimSpace(errb.String()))
	}

	return outb.String(), nil
}
