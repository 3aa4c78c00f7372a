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

// Package configure derives the ordered argument list for the OpenJDK
// configure script.
package configure

import (
	"strings"

	"github.com/cowdogmoo/jdkbuild/shell"
	"github.com/mattn/go-shellwords"
)

// Arg is one configure flag. An empty Value renders the bare flag.
type Arg struct {
	Flag  string
	Value string
}

// String renders flag=value.
func (a Arg) String() string {
	if a.Value == "" {
		return a.Flag
	}
	return a.Flag + "=" + a.Value
}

// ArgumentSet is the ordered configure argument list. Later flags override
// earlier ones in configure, so order is preserved exactly.
type ArgumentSet struct {
	args        []Arg
	overrideRaw string
	overrides   []string
}

// NewArgumentSet parses the user override string with shell word rules.
func NewArgumentSet(override string) (*ArgumentSet, error) {
	override = strings.TrimSpace(override)
	tokens, err := shellwords.Parse(override)
	if err != nil {
		return nil, err
	}
	return &ArgumentSet{overrideRaw: override, overrides: tokens}, nil
}

// Overridden reports whether any user override token contains flag. The
// match is a substring match, so --with-x also matches a user --with-x11.
func (s *ArgumentSet) Overridden(flag string) bool {
	for _, tok := range s.overrides {
		if strings.Contains(tok, flag) {
			return true
		}
	}
	return false
}

// Mentions reports whether the raw override string contains word anywhere.
func (s *ArgumentSet) Mentions(word string) bool {
	return strings.Contains(s.overrideRaw, word)
}

// AddIfAbsent appends flag unless the user already supplied it.
func (s *ArgumentSet) AddIfAbsent(flag, value string) bool {
	if s.Overridden(flag) {
		return false
	}
	s.args = append(s.args, Arg{Flag: flag, Value: value})
	return true
}

// Args returns the derived arguments in order, without user overrides.
func (s *ArgumentSet) Args() []Arg {
	out := make([]Arg, len(s.args))
	copy(out, s.args)
	return out
}

// Has reports whether a derived argument with this flag exists.
func (s *ArgumentSet) Has(flag string) bool {
	_, ok := s.Value(flag)
	return ok
}

// Value returns the value of a derived flag.
func (s *ArgumentSet) Value(flag string) (string, bool) {
	for _, a := range s.args {
		if a.Flag == flag {
			return a.Value, true
		}
	}
	return "", false
}

// Override returns the raw user override string.
func (s *ArgumentSet) Override() string {
	return s.overrideRaw
}

// Words returns the full argv: derived arguments then the user overrides.
func (s *ArgumentSet) Words() []string {
	words := make([]string, 0, len(s.args)+len(s.overrides))
	for _, a := range s.args {
		words = append(words, a.String())
	}
	return append(words, s.overrides...)
}

// String renders the argument list as a shell command line fragment, with
// the raw user override string appended last.
func (s *ArgumentSet) String() string {
	parts := make([]string, 0, len(s.args)+1)
	for _, a := range s.args {
		parts = append(parts, shell.Quote(a.String()))
	}
	if s.overrideRaw != "" {
		parts = append(parts, s.overrideRaw)
	}
	return strings.Join(parts, " ")
}
