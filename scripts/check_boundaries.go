package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

const modulePath = "royalties"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// Third-party packages the inner layers may use. Everything else non-stdlib
// belongs in adapters or internal/platform.
var (
	domainThirdParty = []string{
		"github.com/shopspring/decimal",
	}
	applicationThirdParty = []string{
		"github.com/shopspring/decimal",
		"go.opentelemetry.io/otel",
	}
)

func main() {
	root := pflag.String("root", ".", "repository root")
	pflag.Parse()

	violations := collectViolations(*root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations checks every non-test file under root/contexts. Files
// are laid out as contexts/<context>/<module>/<layer>/...
func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(filepath.Join(root, "contexts"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		normalized := filepath.ToSlash(rel)
		parts := strings.Split(normalized, "/")
		if len(parts) < 5 {
			return nil
		}
		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], modulePrefix)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})
	return violations
}

func validateFile(path string, normalizedPath string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		add := func(rule string) {
			violations = append(violations, violation{File: normalizedPath, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			add("cross-module imports are forbidden")
		}

		switch layer {
		case "domain":
			if rule := checkInner(importPath, "domain", []string{modulePrefix + "/domain"}, domainThirdParty); rule != "" {
				add(rule)
			}
		case "application":
			allowed := []string{
				modulePrefix + "/application",
				modulePrefix + "/domain",
				modulePrefix + "/ports",
				modulePath + "/contracts",
			}
			if rule := checkInner(importPath, "application", allowed, applicationThirdParty); rule != "" {
				add(rule)
			}
		}
	}
	return violations
}

func checkInner(importPath string, layer string, allowed []string, thirdParty []string) string {
	switch {
	case strings.Contains(importPath, "/adapters/"):
		return layer + " must not import adapters"
	case hasPrefix(importPath, modulePath+"/internal"), hasPrefix(importPath, modulePath+"/cmd"):
		return layer + " must not import runtime infrastructure"
	case isStdlib(importPath), isAllowed(importPath, allowed), isAllowed(importPath, thirdParty):
		return ""
	default:
		return layer + " import is outside explicit allowlist"
	}
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
