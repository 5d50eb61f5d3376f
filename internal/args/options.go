package args

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"rgr/internal/errs"
)

// Mode selects what rgr does with the matches rg reports.
type Mode uint8

const (
	// ModePassthrough runs rg verbatim; no --replace was given.
	ModePassthrough Mode = iota
	// ModeInteractive asks before every replacement.
	ModeInteractive
	// ModeBatchDiff replaces every match into a diff without asking.
	ModeBatchDiff
	// ModeBatchInPlace replaces every match in place without asking.
	ModeBatchInPlace
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ModePassthrough:
		return "passthrough"
	case ModeInteractive:
		return "interactive"
	case ModeBatchDiff:
		return "batch-diff"
	case ModeBatchInPlace:
		return "batch-in-place"
	default:
		return "unknown"
	}
}

// Options holds the rgr-managed flags found in the raw argument vector.
type Options struct {
	Replace    string
	HasReplace bool
	Diff       bool
	DiffPath   string // "" means standard output
	Iterative  bool
	NoConfirm  bool
	Undo       bool
	Version    bool

	// Hints are warnings about tokens that look like misspelled rgr flags.
	Hints []string
}

// Mode derives the operating mode from the flags.
func (o Options) Mode() Mode {
	switch {
	case !o.HasReplace:
		return ModePassthrough
	case o.NoConfirm:
		return ModeBatchInPlace
	case o.Diff && !o.Iterative:
		return ModeBatchDiff
	default:
		return ModeInteractive
	}
}

// Parse extracts the managed flags from argv and validates their combination.
// Values are located with the same skip rule Remove uses, so a token Parse
// reads as a value is exactly the token Remove drops.
func Parse(argv []string) (Options, error) {
	var opts Options
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		spec, ok := matchSpec(arg, ManagedFlags)
		if !ok {
			if hint := nearMiss(arg); hint != "" {
				opts.Hints = append(opts.Hints, hint)
			}
			continue
		}

		value, hasValue := "", false
		if spec.TakesValue {
			v, attached := strings.CutPrefix(arg, spec.Name+"=")
			switch {
			case attached:
				value, hasValue = v, true
			case arg != spec.Name:
				return opts, errs.Usagef("%s: write the value as %s=VALUE or as a separate argument", arg, spec.Name)
			case spec.Name == "--diff" && i+1 < len(argv) && isSwitch(argv[i+1]):
				// --diff directly followed by an rgr switch writes to stdout
			case i+1 < len(argv):
				value, hasValue = argv[i+1], true
				i++
			}
		}

		switch spec.Name {
		case "--replace", "-R":
			if !hasValue {
				return opts, errs.Usagef("%s requires a value", spec.Name)
			}
			opts.Replace, opts.HasReplace = value, true
		case "--diff":
			if hasValue && !strings.Contains(arg, "=") && looksLikeFlag(value) {
				return opts, errs.Usagef("--diff would consume %q as its path; use --diff=PATH or put --diff last", value)
			}
			opts.Diff = true
			if value != "-" {
				opts.DiffPath = value
			}
		case "--iterative":
			opts.Iterative = true
		case "--no-confirm":
			opts.NoConfirm = true
		case "--undo":
			opts.Undo = true
		case "--rgr-version":
			opts.Version = true
		}
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	if !o.HasReplace {
		switch {
		case o.Diff && o.Iterative:
			return errs.Usagef("you can't use --iterative or --diff without --replace")
		case o.Diff:
			return errs.Usagef("you can't use --diff without --replace")
		case o.Iterative:
			return errs.Usagef("you can't use --iterative without --replace")
		case o.NoConfirm:
			return errs.Usagef("you can't use --no-confirm without --replace")
		}
		return nil
	}
	if o.NoConfirm && o.Iterative {
		return errs.Usagef("--no-confirm and --iterative are mutually exclusive")
	}
	if o.NoConfirm && o.Diff {
		return errs.Usagef("--no-confirm edits files in place; drop it to write a diff")
	}
	if o.Undo {
		return errs.Usagef("--undo cannot be combined with --replace")
	}
	return nil
}

// isSwitch reports whether s is a managed flag that takes no value. Remove
// drops such a token whether or not it is read as a value, so rg sees the
// same vector either way.
func isSwitch(s string) bool {
	spec, ok := matchSpec(s, ManagedFlags)
	return ok && !spec.TakesValue
}

func looksLikeFlag(s string) bool {
	return len(s) > 1 && s[0] == '-'
}

// nearMiss returns a hint when arg is one edit away from a managed long flag.
func nearMiss(arg string) string {
	if !strings.HasPrefix(arg, "--") {
		return ""
	}
	name, _, _ := strings.Cut(arg, "=")
	for _, spec := range ManagedFlags {
		if !strings.HasPrefix(spec.Name, "--") || name == spec.Name {
			continue
		}
		if edlib.LevenshteinDistance(name, spec.Name) == 1 {
			return fmt.Sprintf("%s is passed to rg unchanged; did you mean %s?", name, spec.Name)
		}
	}
	return ""
}
