package dispatch

import (
	"context"

	"gitlab.com/gitlab-org/tiny-pages/internal/cgi"
	"gitlab.com/gitlab-org/tiny-pages/internal/serving"
)

// DefaultScriptExtension marks the files run as scripts unless configured otherwise
const DefaultScriptExtension = ".py"

// rules is the evaluation order. NoTarget has to come first so that missing
// paths never reach the filesystem rules, ScriptFile has to precede
// RegularFile and Fallback has to be last.
var rules = [...]Kind{NoTarget, ScriptFile, RegularFile, DirectoryIndex, Fallback}

// Option configures a Chain
type Option func(*Chain)

// Chain evaluates the rules in order and hands the request to the first
// one that matches. It is never modified after NewChain returns and can be
// shared by concurrent requests.
type Chain struct {
	runner           cgi.Runner
	scriptExtensions []string
}

// NewChain creates the rule chain. Scripts are run by runner.
func NewChain(runner cgi.Runner, opts ...Option) *Chain {
	c := &Chain{
		runner:           runner,
		scriptExtensions: []string{DefaultScriptExtension},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithScriptExtensions replaces the extensions recognised as scripts
func WithScriptExtensions(extensions ...string) Option {
	return func(c *Chain) {
		c.scriptExtensions = append([]string(nil), extensions...)
	}
}

// Rules returns the rule kinds in evaluation order
func (c *Chain) Rules() []Kind {
	return append([]Kind(nil), rules[:]...)
}

// Dispatch handles rc with the first matching rule and returns its kind.
// Since Fallback always matches, exactly one rule is run.
func (c *Chain) Dispatch(ctx context.Context, rc RequestContext, s serving.ContentSender) (Kind, error) {
	for _, k := range rules {
		if c.Matches(k, rc) {
			return k, c.Handle(ctx, k, rc, s)
		}
	}

	// unreachable while Fallback is the last rule
	return Fallback, unknownTargetError(rc)
}
