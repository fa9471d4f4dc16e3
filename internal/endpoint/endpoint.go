package endpoint

import (
	"fmt"
	"strings"

	apperrors "github.com/dshills/dirdiff/internal/errors"
)

// Kind identifies where one side's content comes from.
type Kind int

const (
	Revision Kind = iota
	Staged
	WorkingTree
)

func (k Kind) String() string {
	switch k {
	case Revision:
		return "revision"
	case Staged:
		return "staged"
	case WorkingTree:
		return "working_tree"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spec is one side of the comparison. Rev is only set for Revision.
type Spec struct {
	Kind Kind   `json:"kind"`
	Rev  string `json:"rev,omitempty"`
}

// Rev returns a Revision spec for id.
func Rev(id string) Spec {
	return Spec{Kind: Revision, Rev: id}
}

func (s Spec) String() string {
	if s.Kind == Revision {
		return s.Rev
	}
	return s.Kind.String()
}

// DirName returns the name of the directory the side is materialized into.
// short is the abbreviated commit id and is ignored for non-revision sides.
func (s Spec) DirName(short string) string {
	switch s.Kind {
	case Staged:
		return "staged"
	case WorkingTree:
		return "working_tree"
	default:
		return "cmt-" + short
	}
}

// Mode selects how the change list is computed.
type Mode int

const (
	// Direct compares left and right as given.
	Direct Mode = iota
	// MergeBaseRelative compares right against the merge base of left and
	// right.
	MergeBaseRelative
)

func (m Mode) String() string {
	if m == MergeBaseRelative {
		return "merge-base"
	}
	return "direct"
}

// Plan is the resolved comparison. It is built once and never mutated.
type Plan struct {
	Left     Spec
	Right    Spec
	Mode     Mode
	Paths    []string
	CopyBack bool
}

// Input is the raw command line handed to Resolve.
type Input struct {
	Args []string
	// DashAt is the index in Args of the first argument after an explicit
	// "--", or -1 when there was none.
	DashAt   int
	Cached   bool
	CopyBack bool
}

// Checker tells revisions from paths for arguments given without "--".
type Checker interface {
	IsRevision(token string) bool
	PathExists(token string) bool
}

// Resolve builds the Plan for in.
func Resolve(in Input, chk Checker) (Plan, error) {
	revs, paths, err := split(in, chk)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Paths:    paths,
		CopyBack: in.CopyBack,
	}

	switch len(revs) {
	case 0:
		plan.Left = Rev("HEAD")
		plan.Right = Spec{Kind: WorkingTree}
	case 1:
		if a, b, mode, ok := parseRange(revs[0]); ok {
			if in.Cached {
				return Plan{}, apperrors.Usage("--cached cannot be combined with a revision range")
			}
			plan.Left, plan.Right, plan.Mode = Rev(a), Rev(b), mode
			break
		}
		plan.Left = Rev(revs[0])
		plan.Right = Spec{Kind: WorkingTree}
	case 2:
		for _, tok := range revs {
			if _, _, _, ok := parseRange(tok); ok {
				return Plan{}, apperrors.Usage("a revision range must be the only revision argument")
			}
		}
		if in.Cached {
			return Plan{}, apperrors.Usage("--cached cannot be combined with two revisions")
		}
		plan.Left, plan.Right = Rev(revs[0]), Rev(revs[1])
	default:
		return Plan{}, apperrors.Usage("too many revisions: %s", strings.Join(revs, " "))
	}

	if in.Cached && plan.Right.Kind == WorkingTree {
		plan.Right = Spec{Kind: Staged}
	}

	if plan.CopyBack && plan.Right.Kind != WorkingTree {
		return Plan{}, apperrors.Usage("--copy-back requires the right side to be the working tree")
	}

	return plan, nil
}

// split separates revision tokens from path filters.
func split(in Input, chk Checker) (revs, paths []string, err error) {
	if in.DashAt >= 0 && in.DashAt <= len(in.Args) {
		return in.Args[:in.DashAt], in.Args[in.DashAt:], nil
	}

	for i, tok := range in.Args {
		if len(revs) == 2 || (len(revs) == 1 && isRangeSyntax(revs[0])) {
			return revs, in.Args[i:], nil
		}
		if isRevisionToken(tok, chk) {
			revs = append(revs, tok)
			continue
		}
		if i == 0 && !chk.PathExists(tok) && !hasGlobMeta(tok) {
			return nil, nil, apperrors.RevisionResolution(tok,
				fmt.Errorf("unknown revision or path not in the working tree (use '--' to separate paths from revisions)"))
		}
		return revs, in.Args[i:], nil
	}
	return revs, nil, nil
}

func isRevisionToken(tok string, chk Checker) bool {
	if strings.HasPrefix(tok, "-") {
		return false
	}
	if a, b, _, ok := parseRange(tok); ok {
		return chk.IsRevision(a) && chk.IsRevision(b)
	}
	return chk.IsRevision(tok)
}

// parseRange splits "A..B" or "A...B". An empty side stands for HEAD.
func parseRange(tok string) (left, right string, mode Mode, ok bool) {
	sep, mode := "..", Direct
	idx := strings.Index(tok, "...")
	if idx >= 0 {
		sep, mode = "...", MergeBaseRelative
	} else {
		idx = strings.Index(tok, "..")
	}
	if idx < 0 {
		return "", "", Direct, false
	}
	left, right = tok[:idx], tok[idx+len(sep):]
	if left == "" && right == "" {
		return "", "", Direct, false
	}
	if left == "" {
		left = "HEAD"
	}
	if right == "" {
		right = "HEAD"
	}
	return left, right, mode, true
}

func isRangeSyntax(tok string) bool {
	_, _, _, ok := parseRange(tok)
	return ok
}

func hasGlobMeta(tok string) bool {
	return strings.ContainsAny(tok, "*?[")
}
