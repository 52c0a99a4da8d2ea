package staging

import (
	"fmt"
	"slices"
)

// Each collection has its own merge function. They are pure: they never
// modify existing and return a new slice (or an error, in which case the
// caller keeps the original slice untouched).

// mergeFile merges an incoming file change into existing.
//
// Rules, keyed by (existing op, incoming op):
//   - any, write: the incoming write supersedes
//   - append, append: appended contents are concatenated
//   - patch, patch: edit lists are concatenated
//   - write, patch: the edits are applied to the staged content, result is a write
//   - anything else: rejected, the combined intent is ambiguous
//
// The merged entry keeps the position of the first staging for that key.
func mergeFile(existing []FileChange, incoming FileChange) ([]FileChange, error) {
	idx := slices.IndexFunc(existing, func(f FileChange) bool { return f.Key == incoming.Key })
	if idx < 0 {
		return append(slices.Clone(existing), incoming), nil
	}

	prev := existing[idx]
	merged := FileChange{Path: incoming.Path, Key: incoming.Key, Label: incoming.Label}
	if merged.Label == "" {
		merged.Label = prev.Label
	}

	switch {
	case incoming.Op.Kind == OpWrite:
		merged.Op = incoming.Op

	case prev.Op.Kind == OpAppend && incoming.Op.Kind == OpAppend:
		merged.Op = Append(prev.Op.Content + incoming.Op.Content)

	case prev.Op.Kind == OpPatch && incoming.Op.Kind == OpPatch:
		edits := append(slices.Clone(prev.Op.Edits), incoming.Op.Edits...)
		merged.Op = Patch(edits...)

	case prev.Op.Kind == OpWrite && incoming.Op.Kind == OpPatch:
		content, err := ApplyEdits(prev.Op.Content, incoming.Op.Edits)
		if err != nil {
			return nil, &ValidationError{
				Field:  "operation",
				Value:  incoming.Path,
				Reason: "patch does not apply to the staged content",
				Err:    err,
			}
		}
		merged.Op = Write(content)

	default:
		return nil, invalid("operation", incoming.Path,
			fmt.Sprintf("cannot %s after a staged %s; stage a full write instead", incoming.Op.Kind, prev.Op.Kind))
	}

	out := slices.Clone(existing)
	out[idx] = merged
	return out, nil
}

// mergePackage merges an incoming install into existing. Entries are keyed by
// (name, kind); the most restrictive constraint wins.
func mergePackage(existing []PackageInstall, incoming PackageInstall) ([]PackageInstall, error) {
	idx := slices.IndexFunc(existing, func(p PackageInstall) bool {
		return p.Name == incoming.Name && p.Kind == incoming.Kind
	})
	if idx < 0 {
		return append(slices.Clone(existing), incoming), nil
	}

	prev := existing[idx]
	intersection, ok := prev.Constraint.Intersect(incoming.Constraint)
	if !ok {
		return nil, &ValidationError{
			Field:  "constraint",
			Value:  incoming.Constraint.String(),
			Reason: fmt.Sprintf("%s (%s) is already staged with %s", incoming.Name, incoming.Kind, prev.Constraint.String()),
			Err:    ErrIncompatibleConstraint,
		}
	}

	merged := prev
	switch {
	case incoming.Constraint.Contains(prev.Constraint):
		// Existing is already at least as tight.
	case prev.Constraint.Contains(incoming.Constraint):
		merged.Constraint = incoming.Constraint
	default:
		merged.Constraint = intersection
	}

	out := slices.Clone(existing)
	out[idx] = merged
	return out, nil
}

// mergeCommand appends incoming unless an identical invocation is staged.
func mergeCommand(existing []Command, incoming Command) []Command {
	if slices.ContainsFunc(existing, incoming.equal) {
		return existing
	}
	return append(slices.Clone(existing), incoming)
}
