package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"taskflow"},
			want: []string{"taskflow"},
		},
		{
			name: "direct id first token",
			in:   []string{"taskflow", "42"},
			want: []string{"taskflow", "tasks", "show", "42"},
		},
		{
			name: "direct id after value flag",
			in:   []string{"taskflow", "--api-url", "http://localhost:8000", "42"},
			want: []string{"taskflow", "--api-url", "http://localhost:8000", "tasks", "show", "42"},
		},
		{
			name: "direct id after equals flag",
			in:   []string{"taskflow", "--format=table", "42"},
			want: []string{"taskflow", "--format=table", "tasks", "show", "42"},
		},
		{
			name: "direct id after bool flag",
			in:   []string{"taskflow", "--pretty", "42"},
			want: []string{"taskflow", "--pretty", "tasks", "show", "42"},
		},
		{
			name: "timeout value is not taken for an id",
			in:   []string{"taskflow", "--timeout", "5s", "7"},
			want: []string{"taskflow", "--timeout", "5s", "tasks", "show", "7"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"taskflow", "tasks", "show", "42"},
			want: []string{"taskflow", "tasks", "show", "42"},
		},
		{
			name: "non-positive id not rewritten",
			in:   []string{"taskflow", "0"},
			want: []string{"taskflow", "0"},
		},
		{
			name: "after double dash not rewritten",
			in:   []string{"taskflow", "--", "42"},
			want: []string{"taskflow", "--", "42"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"taskflow", "wat"},
			want: []string{"taskflow", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTaskLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTaskLookupArgs(%v) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}
