package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// OptionExample documents one accepted value of an Option.
type OptionExample struct {
	Value string
	Help  string
}

// Option describes one entry of a backend's configuration map, for
// help text and validation; it carries no validation logic itself.
type Option struct {
	Name     string
	Help     string
	Default  interface{}
	Required bool
	Advanced bool
	Examples []OptionExample
}

// RegInfo is what a backend package registers at init time: its name,
// how to construct an instance, and the options it accepts.
type RegInfo struct {
	Name        string
	Description string
	NewBackend  func(ctx context.Context, fsname string, opts map[string]string) (Backend, error)
	Options     []Option
}

var (
	registryMu sync.Mutex
	registry   = map[string]*RegInfo{}
)

// Register makes a backend kind available to New and Find by name. It
// panics on a duplicate name, the same as registering two backends
// under one name is a build-time mistake, not a runtime one.
func Register(info *RegInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[info.Name]; exists {
		panic(fmt.Sprintf("backend: %q already registered", info.Name))
	}
	registry[info.Name] = info
}

// Find looks up a registered backend kind by name.
func Find(name string) (*RegInfo, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	info, ok := registry[name]
	return info, ok
}

// Names returns every registered backend kind, sorted.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs a backend instance of the named kind. It fills in
// every option left unset by opts that has a Default, and rejects a
// Required option with neither opts entry nor Default.
func New(ctx context.Context, name, fsname string, opts map[string]string) (Backend, error) {
	info, ok := Find(name)
	if !ok {
		return nil, rbherr.NotSupported("backend: no backend registered under %q", name)
	}

	merged := make(map[string]string, len(opts))
	for k, v := range opts {
		merged[k] = v
	}
	for _, opt := range info.Options {
		if _, set := merged[opt.Name]; set {
			continue
		}
		if opt.Default != nil {
			merged[opt.Name] = fmt.Sprintf("%v", opt.Default)
			continue
		}
		if opt.Required {
			return nil, rbherr.InvalidArgument("backend %q: missing required option %q", name, opt.Name)
		}
	}

	return info.NewBackend(ctx, fsname, merged)
}
