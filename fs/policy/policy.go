// Package policy implements the policy engine core: iterating the
// fsentries a backend's Filter call produces and, for each one,
// picking the first matching rule's action (or the policy's default)
// and dispatching it.
package policy

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/backend"
	"github.com/robinhood-suite/robinhood4-sub001/fs/filter"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// Rule is one entry of a Policy's ordered rule list: the first rule
// whose Filter matches an entry wins.
type Rule struct {
	Name       string
	Filter     *filter.Node
	Action     string
	Parameters []rfs.Pair
}

// Policy names an entry set (Filter), a default Action to take on any
// entry no rule claims, and the ordered Rules to try first.
type Policy struct {
	Name       string
	Filter     *filter.Node
	Action     string
	Parameters []rfs.Pair
	Rules      []Rule
}

// ActionKind discriminates a parsed action string.
type ActionKind int

const (
	ActionCommonDelete ActionKind = iota
	ActionCommonLog
	ActionCommand
	ActionPython
)

// ParsedAction is one action string's parsed form.
type ParsedAction struct {
	Kind     ActionKind
	Template string // for ActionCommand: the cmd: template, "{}" substituted per entry
	Name     string // for ActionPython: the py: name
}

// ParseAction recognises the four well-known action prefixes.
func ParseAction(s string) (ParsedAction, error) {
	switch {
	case s == "common:delete":
		return ParsedAction{Kind: ActionCommonDelete}, nil
	case s == "common:log":
		return ParsedAction{Kind: ActionCommonLog}, nil
	case strings.HasPrefix(s, "cmd:"):
		return ParsedAction{Kind: ActionCommand, Template: strings.TrimPrefix(s, "cmd:")}, nil
	case strings.HasPrefix(s, "py:"):
		return ParsedAction{Kind: ActionPython, Name: strings.TrimPrefix(s, "py:")}, nil
	default:
		return ParsedAction{}, rbherr.InvalidArgument("policy: unrecognised action %q", s)
	}
}

// actionCache parses each distinct action string seen by one policy
// exactly once, and reuses the result across every matching entry.
type actionCache struct {
	mu     sync.Mutex
	parsed map[string]ParsedAction
}

func newActionCache() *actionCache {
	return &actionCache{parsed: make(map[string]ParsedAction)}
}

func (c *actionCache) get(action string) (ParsedAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.parsed[action]; ok {
		return p, nil
	}
	p, err := ParseAction(action)
	if err != nil {
		return ParsedAction{}, err
	}
	c.parsed[action] = p
	return p, nil
}

// paramCache lazily turns a rule or policy's Parameters pairs into a
// lookup map on first use, reused across invocations of that rule.
type paramCache struct {
	mu     sync.Mutex
	parsed map[string]map[string]*rfs.Value
}

func newParamCache() *paramCache {
	return &paramCache{parsed: make(map[string]map[string]*rfs.Value)}
}

func (c *paramCache) get(cacheKey string, params []rfs.Pair) map[string]*rfs.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.parsed[cacheKey]; ok {
		return m
	}
	m := make(map[string]*rfs.Value, len(params))
	for _, p := range params {
		m[p.Key] = p.Value
	}
	c.parsed[cacheKey] = m
	return m
}

// Engine runs policies against a backend.
type Engine struct {
	log      *logrus.Entry
	actions  map[string]*actionCache
	params   *paramCache
	mu       sync.Mutex
	commandFn func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewEngine builds an Engine. log may be nil, in which case a fresh
// logrus logger with its default (stderr) output is used.
func NewEngine(log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Engine{
		log:       log,
		actions:   make(map[string]*actionCache),
		params:    newParamCache(),
		commandFn: exec.CommandContext,
	}
}

func (e *Engine) actionCacheFor(policyName string) *actionCache {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.actions[policyName]
	if !ok {
		c = newActionCache()
		e.actions[policyName] = c
	}
	return c
}

// Run iterates the entries a backend's Filter call produces for
// policy.Filter and applies each entry's winning action. It returns
// how many entries were scanned; one entry's action failing does not
// stop the sweep over the rest, and every such failure is folded into
// the returned error as a *multierror.Error. A failure to iterate
// (the backend itself, not one entry's action) still aborts the sweep
// immediately.
func (e *Engine) Run(ctx context.Context, be backend.Backend, policy *Policy) (int, error) {
	filterable, ok := be.(backend.FilterCapable)
	if !ok {
		return 0, rbherr.NotSupported("policy: backend %q cannot filter entries", be.Name())
	}

	iter, err := filterable.Filter(ctx, policy.Filter, backend.FilterOptions{}, backend.Output{Projection: rfs.FsentryAll})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	cache := e.actionCacheFor(policy.Name)
	count := 0
	var result *multierror.Error
	for {
		entry, err := iter.Next(ctx)
		if errors.Is(err, backend.ErrIteratorDone) {
			break
		}
		if err != nil {
			return count, multierror.Append(result, err).ErrorOrNil()
		}
		count++
		if err := e.applyEntry(ctx, be, cache, policy, entry); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return count, result.ErrorOrNil()
}

func (e *Engine) applyEntry(ctx context.Context, be backend.Backend, cache *actionCache, policy *Policy, entry *rfs.Fsentry) error {
	action, parameters, cacheKey := policy.Action, policy.Parameters, policy.Name+":default"
	for _, rule := range policy.Rules {
		if filter.Eval(rule.Filter, entry) {
			action, parameters, cacheKey = rule.Action, rule.Parameters, policy.Name+":"+rule.Name
			break
		}
	}

	parsed, err := cache.get(action)
	if err != nil {
		return err
	}
	params := e.params.get(cacheKey, parameters)

	switch parsed.Kind {
	case ActionCommonDelete:
		ops, ok := be.(backend.CommonOps)
		if !ok {
			return rbherr.NotSupported("policy: backend %q has no common-operations vtable", be.Name())
		}
		return ops.Delete(ctx, entry, params)
	case ActionCommonLog:
		ops, ok := be.(backend.CommonOps)
		if !ok {
			return rbherr.NotSupported("policy: backend %q has no common-operations vtable", be.Name())
		}
		return ops.Log(ctx, entry, params)
	case ActionCommand:
		return e.runCommand(ctx, parsed.Template, entry)
	case ActionPython:
		return rbherr.NotSupported("policy: py: actions are not implemented (%q)", parsed.Name)
	default:
		return rbherr.InvalidArgument("policy: unknown parsed action kind %d", parsed.Kind)
	}
}

// runCommand substitutes "{}" in template with entry's name (this
// module has no namespace path cache to reconstruct an absolute path
// from a single Fsentry) and runs it through the shell.
func (e *Engine) runCommand(ctx context.Context, template string, entry *rfs.Fsentry) error {
	command := strings.ReplaceAll(template, "{}", entry.Name)
	cmd := e.commandFn(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return rbherr.Wrap(rbherr.KindBackendError, err, "policy: command %q failed: %s", command, out)
	}
	return nil
}
