package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"musicatlas/internal/app/users"
	"musicatlas/internal/bootstrap"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// RoleSetter changes the role recorded on a user profile.
type RoleSetter interface {
	SetRole(ctx context.Context, userID string, role models.Role) error
}

// Resolver maps a stored media URL back to its object.
type Resolver interface {
	Resolve(url string) (media.Object, error)
}

// Environment is everything the local commands operate on.
type Environment struct {
	Catalog      store.Catalog
	Coordinators bootstrap.Coordinators
	Roles        RoleSetter
	Media        Resolver
	Close        func()
}

// RunnerOpts configures a Runner.
type RunnerOpts struct {
	// Open builds the environment the first time a command needs it.
	Open   func(ctx context.Context) (*Environment, error)
	Remote func(server, token string) media.Transfer
	Output io.Writer
}

// Runner holds the dependencies of every catalogctl command.
type Runner struct {
	open   func(ctx context.Context) (*Environment, error)
	remote func(server, token string) media.Transfer
	output io.Writer

	once sync.Once
	env  *Environment
	err  error
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Remote == nil {
		opts.Remote = func(server, token string) media.Transfer {
			return media.NewRemoteClient(server, token)
		}
	}
	return &Runner{open: opts.Open, remote: opts.Remote, output: opts.Output}
}

func (r *Runner) environment(ctx context.Context) (*Environment, error) {
	r.once.Do(func() {
		if r.open == nil {
			r.err = fmt.Errorf("no catalog configured")
			return
		}
		r.env, r.err = r.open(ctx)
	})
	return r.env, r.err
}

// Close releases the environment if one was opened.
func (r *Runner) Close() {
	if r.env != nil && r.env.Close != nil {
		r.env.Close()
	}
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.output, format+"\n", args...)
}

var _ RoleSetter = (*users.Service)(nil)
