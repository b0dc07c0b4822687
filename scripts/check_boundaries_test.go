package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGo(t *testing.T, root string, rel string, src string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRepositoryHasNoViolations(t *testing.T) {
	if violations := collectViolations(".."); len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
}

func TestCollectViolationsFlagsLayerLeaks(t *testing.T) {
	root := t.TempDir()
	writeGo(t, root, "contexts/finance-core/royalty-engine/domain/entities/track.go", `package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)
`)
	writeGo(t, root, "contexts/finance-core/royalty-engine/application/commands/withdraw.go", `package commands

import (
	"royalties/contexts/finance-core/platform-fee-engine/ports"
	"royalties/contexts/finance-core/royalty-engine/adapters/memory"
	"royalties/internal/platform/messaging"
)
`)
	writeGo(t, root, "contexts/finance-core/royalty-engine/domain/entities/track_test.go", `package entities

import "gorm.io/gorm"
`)

	violations := collectViolations(root)
	rules := make(map[string]int)
	for _, v := range violations {
		rules[v.Rule]++
	}

	want := map[string]int{
		"domain import is outside explicit allowlist":        1,
		"cross-module imports are forbidden":                 1,
		"application import is outside explicit allowlist":   1,
		"application must not import adapters":               1,
		"application must not import runtime infrastructure": 1,
	}
	for rule, count := range want {
		if rules[rule] != count {
			t.Fatalf("rule %q: got %d violations, want %d (all: %+v)", rule, rules[rule], count, violations)
		}
	}
	if len(violations) != 5 {
		t.Fatalf("got %d violations, want 5: %+v", len(violations), violations)
	}
}
