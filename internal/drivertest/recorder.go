// Package drivertest provides an in-memory driver.Transport for tests.
package drivertest

import (
	"context"
	"errors"
	"sync"

	"github.com/manojoshi/redisearch/driver"
)

// ErrNoReply is returned when a Recorder runs out of queued replies.
var ErrNoReply = errors.New("drivertest: no reply queued")

type reply struct {
	val any
	err error
}

// Recorder records every command it is sent and answers with queued
// replies in FIFO order.
type Recorder struct {
	mu       sync.Mutex
	commands [][]any
	replies  []reply
}

var _ driver.Transport = (*Recorder)(nil)

// New returns a recorder answering with replies in order.
func New(replies ...any) *Recorder {
	r := &Recorder{}
	for _, v := range replies {
		r.Reply(v)
	}
	return r
}

// Reply queues a successful reply.
func (r *Recorder) Reply(v any) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{val: v})
	return r
}

// Fail queues an error reply.
func (r *Recorder) Fail(err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{err: err})
	return r
}

func (r *Recorder) Do(_ context.Context, args ...interface{}) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, append([]any(nil), args...))
	return r.next()
}

func (r *Recorder) Pipeline(_ context.Context, cmds [][]interface{}) ([]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(cmds))
	for i, c := range cmds {
		r.commands = append(r.commands, append([]any(nil), c...))
		v, err := r.next()
		if err != nil {
			out[i] = err
			continue
		}
		out[i] = v
	}
	return out, nil
}

func (r *Recorder) next() (any, error) {
	if len(r.replies) == 0 {
		return nil, ErrNoReply
	}
	rep := r.replies[0]
	r.replies = r.replies[1:]
	return rep.val, rep.err
}

// Commands returns every recorded command.
func (r *Recorder) Commands() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]any(nil), r.commands...)
}

// Last returns the most recent command, or nil.
func (r *Recorder) Last() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commands) == 0 {
		return nil
	}
	return r.commands[len(r.commands)-1]
}
