package transform

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	convertFunctionName    = "Convert"
	defaultScriptPackage   = "main"
	scriptParseErrorFormat = "parse script: %w"
	forbiddenImportsFormat = "forbidden imports %v (allowed: %s)"
	missingConvertFormat   = "script must declare func %s(raw string) (string, error): %w"
	signatureErrorFormat   = "%s has incorrect signature (expected: func(string) (string, error) or func(string) string)"
)

// A one-element result is the converted text; a second element carries the script's error message.
const (
	fallibleCallFormat = `func() []string { out, err := %s(%s); if err != nil { return []string{"", err.Error()} }; return []string{out} }()`
	plainCallFormat    = `func() []string { return []string{%s(%s)} }()`
)

var packageClausePattern = regexp.MustCompile(`(?m)^\s*package\s+\w+`)

// Pure packages only: nothing that reaches the filesystem, network, environment or runtime internals.
var sandboxAllowedPackages = []string{
	"bytes",
	"encoding/base64",
	"encoding/json",
	"errors",
	"fmt",
	"math",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"unicode",
	"unicode/utf8",
}

type sandbox struct {
	allowedPackages map[string]bool
	symbols         interp.Exports
}

func newSandbox() sandbox {
	allowed := make(map[string]bool, len(sandboxAllowedPackages))
	for _, pkg := range sandboxAllowedPackages {
		allowed[pkg] = true
	}
	symbols := interp.Exports{}
	for key, values := range stdlib.Symbols {
		// stdlib keys are "<import path>/<package name>".
		if allowed[path.Dir(key)] {
			symbols[key] = values
		}
	}
	return sandbox{allowedPackages: allowed, symbols: symbols}
}

// run evaluates script in a fresh interpreter and calls its Convert function with raw.
// raw is passed as a quoted literal so the whole call is interpreted.
func (s sandbox) run(ctx context.Context, script string, raw string) (string, error) {
	source := script
	if !packageClausePattern.MatchString(source) {
		source = "package " + defaultScriptPackage + "\n\n" + source
	}
	packageName, parseErr := s.validate(source)
	if parseErr != nil {
		return "", parseErr
	}

	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(s.symbols); err != nil {
		return "", fmt.Errorf("load sandbox symbols: %w", err)
	}
	if _, err := interpreter.EvalWithContext(ctx, source); err != nil {
		return "", fmt.Errorf("evaluate script: %w", err)
	}
	qualified := packageName + "." + convertFunctionName
	convertValue, lookupErr := interpreter.EvalWithContext(ctx, qualified)
	if lookupErr != nil {
		return "", fmt.Errorf(missingConvertFormat, convertFunctionName, lookupErr)
	}

	var call string
	switch convertValue.Interface().(type) {
	case func(string) (string, error):
		call = fmt.Sprintf(fallibleCallFormat, qualified, strconv.Quote(raw))
	case func(string) string:
		call = fmt.Sprintf(plainCallFormat, qualified, strconv.Quote(raw))
	default:
		return "", fmt.Errorf(signatureErrorFormat, convertFunctionName)
	}

	// Cancelling ctx stops the interpreted call.
	resultValue, callErr := interpreter.EvalWithContext(ctx, call)
	if callErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("script timed out: %w", ctxErr)
		}
		return "", fmt.Errorf("script failed: %w", callErr)
	}
	parts, ok := resultValue.Interface().([]string)
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("script returned %T", resultValue.Interface())
	}
	if len(parts) > 1 {
		return "", errors.New(parts[1])
	}
	return parts[0], nil
}

// validate parses the import list and rejects packages outside the whitelist.
func (s sandbox) validate(source string) (string, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "convert.go", source, parser.ImportsOnly)
	if err != nil {
		return "", fmt.Errorf(scriptParseErrorFormat, err)
	}
	var forbidden []string
	for _, spec := range file.Imports {
		importPath, unquoteErr := strconv.Unquote(spec.Path.Value)
		if unquoteErr != nil {
			return "", fmt.Errorf(scriptParseErrorFormat, unquoteErr)
		}
		if !s.allowedPackages[importPath] {
			forbidden = append(forbidden, importPath)
		}
	}
	if len(forbidden) > 0 {
		allowed := append([]string(nil), sandboxAllowedPackages...)
		sort.Strings(allowed)
		return "", fmt.Errorf(forbiddenImportsFormat, forbidden, strings.Join(allowed, ", "))
	}
	return file.Name.Name, nil
}
