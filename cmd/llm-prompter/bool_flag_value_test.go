package llmprompter

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestParseBoolChoice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
		ok       bool
	}{
		{name: "EmptyDefaultsTrue", input: "", expected: true, ok: true},
		{name: "TrueWord", input: "true", expected: true, ok: true},
		{name: "FalseWord", input: "false", expected: false, ok: true},
		{name: "Yes", input: "yes", expected: true, ok: true},
		{name: "No", input: "no", expected: false, ok: true},
		{name: "Upper", input: "ON", expected: true, ok: true},
		{name: "Invalid", input: "maybe", expected: false, ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(testingT *testing.T) {
			value, ok := parseBoolChoice(testCase.input)
			if ok != testCase.ok {
				testingT.Fatalf("expected ok=%v, got %v", testCase.ok, ok)
			}
			if ok && value != testCase.expected {
				testingT.Fatalf("expected value %v, got %v", testCase.expected, value)
			}
		})
	}
}

func TestRegisterBoolChoiceFlag(t *testing.T) {
	var force bool
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerBoolChoiceFlag(flags, &force, forceFlagName, forceFlagUsage)

	if err := flags.Parse([]string{"--force"}); err != nil {
		t.Fatalf("parse bare flag: %v", err)
	}
	if !force {
		t.Fatalf("expected bare --force to enable")
	}
	if err := flags.Parse([]string{"--force=off"}); err != nil {
		t.Fatalf("parse explicit flag: %v", err)
	}
	if force {
		t.Fatalf("expected --force=off to disable")
	}
	if err := flags.Parse([]string{"--force=perhaps"}); err == nil {
		t.Fatalf("expected invalid value to be rejected")
	}
}
