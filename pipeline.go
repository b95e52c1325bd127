package redikit

import (
	"context"
	"fmt"

	"github.com/efritz/redikit/iface"
)

type (
	// Pipeline wraps an ordered sequence of commands that are sent in
	// a single MULTI/EXEC exchange on one connection.
	Pipeline = iface.Pipeline

	pipeline struct {
		ctx      context.Context
		cache    *Cache
		commands []commandPair
	}

	commandPair struct {
		command string
		args    []interface{}
	}
)

// Pipeline returns a builder object to which commands can be attached.
// The pipeline runs on the connection pinned by an enclosing batch, if
// there is one. Commands queued in MULTI are never retried. SELECT can
// not be queued; use Select inside a batch instead.
func (c *Cache) Pipeline(ctx context.Context) Pipeline {
	return &pipeline{
		ctx:      ctx,
		cache:    c,
		commands: []commandPair{},
	}
}

// Add will attach a command to this pipeline. This command is
// not sent to the remote server until Run is invoked.
func (p *pipeline) Add(command string, args ...interface{}) {
	p.commands = append(p.commands, commandPair{
		command: command,
		args:    args,
	})
}

// Run will send all commands attached to this pipeline and return
// the reply of EXEC, a slice of the results of each command.
func (p *pipeline) Run() (interface{}, error) {
	for _, command := range p.commands {
		if isSelect(command.command) {
			return nil, fmt.Errorf("%w: SELECT can not be pipelined", ErrInvalidArgument)
		}
	}

	var result interface{}
	err := p.cache.withConn(p.ctx, func(conn Conn) error {
		if err := conn.Send("MULTI"); err != nil {
			return err
		}

		// A connection left inside an open MULTI must not be reused.
		for _, command := range p.commands {
			if err := conn.Send(command.command, command.args...); err != nil {
				return markBroken(err)
			}
		}

		reply, err := conn.Do("EXEC")
		result = reply
		return err
	})

	return result, err
}
