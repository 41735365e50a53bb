package executor

import (
	"sort"
	"strings"
)

// Env is an immutable environment snapshot handed to every child process.
// It is built once from configuration and never derived from a request.
type Env struct {
	vars []string
}

// BuildEnv constructs a snapshot from the parent environment.
//
// Only variables named in allow are copied from parent. An entry ending in
// "*" matches every variable with that prefix (e.g. "LC_*"). Entries in set
// are added last and override anything copied from parent.
func BuildEnv(parent []string, allow []string, set map[string]string) Env {
	seen := make(map[string]int)
	var vars []string

	add := func(key, value string) {
		kv := key + "=" + value
		if i, ok := seen[key]; ok {
			vars[i] = kv
			return
		}
		seen[key] = len(vars)
		vars = append(vars, kv)
	}

	for _, kv := range parent {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if allowed(key, allow) {
			add(key, value)
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, set[k])
	}

	return Env{vars: vars}
}

func allowed(key string, allow []string) bool {
	for _, pattern := range allow {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
			continue
		}
		if key == pattern {
			return true
		}
	}
	return false
}

// List returns a copy of the snapshot in KEY=VALUE form.
// The result is never nil, so exec.Cmd will not fall back to os.Environ.
func (e Env) List() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

// Get returns the value of key in the snapshot.
func (e Env) Get(key string) (string, bool) {
	for _, kv := range e.vars {
		k, v, _ := strings.Cut(kv, "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

// Names returns the variable names in the snapshot, in order.
func (e Env) Names() []string {
	names := make([]string, len(e.vars))
	for i, kv := range e.vars {
		names[i], _, _ = strings.Cut(kv, "=")
	}
	return names
}
