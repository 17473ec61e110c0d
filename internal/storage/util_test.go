package storage

import (
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"single", "SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"several", "INSERT INTO t (a, b, c) VALUES (?, ?, ?)", "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rebind(tt.query)
			if got != tt.want {
				t.Errorf("rebind(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestBuildInfoID(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"chain-1/build-info/f00dbabe.json", "f00dbabe"},
		{`..\build-info\abc.json`, "abc"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got := buildInfoID(tt.ref)
			if got != tt.want {
				t.Errorf("buildInfoID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestComputeHash(t *testing.T) {
	got := computeHash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("computeHash(abc) = %s, want %s", got, want)
	}
}
