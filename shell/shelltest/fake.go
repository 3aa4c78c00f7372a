/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cowdogmoo/jdkbuild/shell"
)

// Response is the scripted result of one command line.
type Response struct {
	Output   string
	Err      error
	ExitCode int
}

// Runner answers commands from Responses keyed by "name arg1 arg2...".
// A key may also be just the command name. Unknown commands fail.
type Runner struct {
	mu        sync.Mutex
	Responses map[string]Response
	Calls     []string
	// OnRun is invoked for Run calls before the response is returned.
	OnRun func(cmd shell.Command)
}

func (r *Runner) lookup(name string, args []string) (Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.Calls = append(r.Calls, line)
	if resp, ok := r.Responses[line]; ok {
		return resp, true
	}
	resp, ok := r.Responses[name]
	return resp, ok
}

// Output implements shell.Runner.
func (r *Runner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	resp, ok := r.lookup(name, args)
	if !ok {
		return nil, fmt.Errorf("%s: command not found", name)
	}
	return []byte(resp.Output), resp.Err
}

// Run implements shell.Runner.
func (r *Runner) Run(_ context.Context, cmd shell.Command) (int, error) {
	resp, ok := r.lookup(cmd.Name, cmd.Args)
	if !ok {
		return -1, fmt.Errorf("%s: command not found", cmd.Name)
	}
	if r.OnRun != nil {
		r.OnRun(cmd)
	}
	if cmd.Stdout != nil && resp.Output != "" {
		_, _ = cmd.Stdout.Write([]byte(resp.Output))
	}
	return resp.ExitCode, resp.Err
}

// Called reports whether a command line starting with prefix was run.
func (r *Runner) Called(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
