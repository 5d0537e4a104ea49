package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("Line %d", i))
	}
	path := writeLog(t, all)

	tests := []struct {
		name     string
		opts     Options
		expected []string
	}{
		{"read all (0)", Options{}, all},
		{"last 3", Options{MaxLines: 3}, []string{"Line 8", "Line 9", "Line 10"}},
		{"more than available", Options{MaxLines: 50}, all},
		{"exact count", Options{MaxLines: 10}, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.opts)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_Grep(t *testing.T) {
	path := writeLog(t, []string{
		"2026/01/01 cart: persist failed: disk full",
		"2026/01/01 session: restore storefront failed: network error",
		"2026/01/01 poll ok",
		"2026/01/02 Cart: discarding malformed persisted cart",
	})

	got, err := Read(path, Options{Grep: "CART"})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 2 || !strings.Contains(got[1], "discarding") {
		t.Fatalf("grep = %v", got)
	}

	got, err = Read(path, Options{Grep: "cart", MaxLines: 1})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 1 || !strings.Contains(got[0], "discarding") {
		t.Fatalf("grep last 1 = %v", got)
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), Options{MaxLines: 5})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("Read = %v, want nil", got)
	}
}
