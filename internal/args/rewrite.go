// Package args rewrites the argument vector handed to rg and extracts the
// flags that belong to rgr itself.
package args

import (
	"strconv"
	"strings"
)

// FlagSpec describes a flag that must be stripped before rg sees the vector.
type FlagSpec struct {
	Name       string
	TakesValue bool // the next token is the value unless attached with '='
}

// RequiredFlag is a flag rg must receive exactly once.
type RequiredFlag struct {
	// Text is the canonical token appended when the flag is absent.
	Text string
	// Aliases are other exact spellings that already satisfy the flag.
	Aliases []string
	// Prefixes are spellings with an attached value, e.g. "-C" for "-C5".
	Prefixes []string
}

// DefaultContext is the context window requested from rg and used for diff hunks.
const DefaultContext = 3

// ManagedFlags are understood by rgr and never forwarded to rg.
var ManagedFlags = []FlagSpec{
	{Name: "--replace", TakesValue: true},
	{Name: "-R", TakesValue: true},
	{Name: "--diff", TakesValue: true},
	{Name: "--iterative"},
	{Name: "--no-confirm"},
	{Name: "--undo"},
	{Name: "--rgr-version"},
}

// RequiredFlags forces JSON output, line numbers and a context window.
func RequiredFlags(context int) []RequiredFlag {
	if context < 0 {
		context = DefaultContext
	}
	return []RequiredFlag{
		{Text: "--json"},
		{Text: "--line-number", Aliases: []string{"-n"}},
		{
			Text:     "--context=" + strconv.Itoa(context),
			Aliases:  []string{"--context"},
			Prefixes: []string{"--context=", "-C"},
		},
	}
}

// Rewrite strips specs from args and appends every missing required flag.
func Rewrite(args []string, specs []FlagSpec, required []RequiredFlag) []string {
	return Inject(Remove(args, specs), required)
}

// Remove drops every token that starts with a spec name. For value-bearing
// specs the following token is dropped too, unless the value is attached as
// "name=value". A token consumed as a value is never matched against specs.
// A value-bearing flag in last position is dropped alone.
func Remove(args []string, specs []FlagSpec) []string {
	out := make([]string, 0, len(args))
	skip := 0
	for _, arg := range args {
		if skip > 0 {
			skip--
			continue
		}
		spec, ok := matchSpec(arg, specs)
		if !ok {
			out = append(out, arg)
			continue
		}
		if spec.TakesValue && !strings.HasPrefix(arg, spec.Name+"=") {
			skip = 1
		}
	}
	return out
}

func matchSpec(arg string, specs []FlagSpec) (FlagSpec, bool) {
	for _, spec := range specs {
		if strings.HasPrefix(arg, spec.Name) {
			return spec, true
		}
	}
	return FlagSpec{}, false
}

// Presence reports, keyed by canonical text, which required flags appear in args.
func Presence(args []string, required []RequiredFlag) map[string]bool {
	present := make(map[string]bool, len(required))
	for _, req := range required {
		present[req.Text] = false
	}
	for _, arg := range args {
		for _, req := range required {
			if !present[req.Text] && req.satisfiedBy(arg) {
				present[req.Text] = true
			}
		}
	}
	return present
}

func (r RequiredFlag) satisfiedBy(arg string) bool {
	if arg == r.Text {
		return true
	}
	for _, alias := range r.Aliases {
		if arg == alias {
			return true
		}
	}
	for _, prefix := range r.Prefixes {
		if strings.HasPrefix(arg, prefix) {
			return true
		}
	}
	return false
}

// Inject appends the canonical text of each required flag absent from args.
func Inject(args []string, required []RequiredFlag) []string {
	present := Presence(args, required)
	out := append(make([]string, 0, len(args)+len(required)), args...)
	for _, req := range required {
		if !present[req.Text] {
			out = append(out, req.Text)
			present[req.Text] = true
		}
	}
	return out
}
