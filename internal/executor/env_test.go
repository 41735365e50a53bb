package executor

import (
	"reflect"
	"testing"
)

func TestBuildEnv(t *testing.T) {
	parent := []string{
		"PATH=/usr/bin",
		"HOME=/home/user",
		"LC_ALL=C",
		"LC_CTYPE=UTF-8",
		"SECRET_TOKEN=hunter2",
		"malformed",
		"=novalue",
	}

	tests := []struct {
		name  string
		allow []string
		set   map[string]string
		want  []string
	}{
		{
			name: "nothing allowed",
			want: []string{},
		},
		{
			name:  "exact names",
			allow: []string{"PATH", "HOME"},
			want:  []string{"PATH=/usr/bin", "HOME=/home/user"},
		},
		{
			name:  "prefix",
			allow: []string{"LC_*"},
			want:  []string{"LC_ALL=C", "LC_CTYPE=UTF-8"},
		},
		{
			name:  "set overrides and appends sorted",
			allow: []string{"PATH", "HOME"},
			set:   map[string]string{"PYTHONPATH": "/app", "HOME": "/srv", "LANG": "C.UTF-8"},
			want:  []string{"PATH=/usr/bin", "HOME=/srv", "LANG=C.UTF-8", "PYTHONPATH=/app"},
		},
		{
			name:  "missing allowed name is skipped",
			allow: []string{"NOT_SET"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := BuildEnv(parent, tt.allow, tt.set)
			if got := env.List(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnv_ListIsCopy(t *testing.T) {
	env := BuildEnv([]string{"A=1"}, []string{"A"}, nil)
	list := env.List()
	list[0] = "A=mutated"

	if v, _ := env.Get("A"); v != "1" {
		t.Errorf("snapshot mutated through List(): A=%q", v)
	}
}

func TestEnv_GetAndNames(t *testing.T) {
	env := BuildEnv([]string{"A=1", "B=x=y"}, []string{"A", "B"}, nil)

	if v, ok := env.Get("B"); !ok || v != "x=y" {
		t.Errorf("Get(B) = %q, %v", v, ok)
	}
	if _, ok := env.Get("C"); ok {
		t.Error("Get(C) should report missing")
	}
	if got := env.Names(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestEnv_ZeroValueListNotNil(t *testing.T) {
	var env Env
	if env.List() == nil {
		t.Error("List() must not be nil; nil makes exec inherit the parent environment")
	}
}
