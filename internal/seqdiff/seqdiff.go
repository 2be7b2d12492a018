// Package seqdiff aligns two ordered sequences and reports the result as a list of spans.
//
// Items are compared through a key function. The alignment itself is delegated to one of several
// algorithms (see [Algorithm]); all of them produce an edit script that is folded into spans the
// same way, so callers only ever see [Span] values.
package seqdiff

import "fmt"

// Status describes how a span relates the two sequences.
type Status int

const (
	Unchanged Status = iota // Src[Src:Src+Length] equals Dst[Dst:Dst+Length]
	Inserted                // Dst[Dst:Dst+Length] has no counterpart in the source
	Deleted                 // Src[Src:Src+Length] has no counterpart in the destination
	Replaced                // Src[Src:Src+Length] is replaced by Dst[Dst:Dst+Length]
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Inserted:
		return "Inserted"
	case Deleted:
		return "Deleted"
	case Replaced:
		return "Replaced"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Span is a contiguous run of the alignment. Src is -1 for Inserted spans and Dst is -1 for
// Deleted spans. A Replaced span covers Length items on both sides.
type Span struct {
	Status Status
	Src    int
	Dst    int
	Length int
}

func (s Span) String() string {
	return fmt.Sprintf("%s(src=%d dst=%d len=%d)", s.Status, s.Src, s.Dst, s.Length)
}

// Op is a single step of an edit script.
type Op int

const (
	Match  Op = iota // Both sequences advance
	Delete           // The source advances
	Insert           // The destination advances
)

// Algorithm selects how the edit script is computed.
type Algorithm int

const (
	// LCS is a longest common subsequence table traced backwards from the end. When several
	// alignments are equally long, the trace drops a source item before it drops a destination
	// item, which makes the result deterministic.
	LCS Algorithm = iota
	// Myers uses znkr.io/diff with a minimal edit script.
	Myers
	// DiffMatchPatch maps keys to runes and aligns them with diff-match-patch.
	DiffMatchPatch
)

func (a Algorithm) String() string {
	switch a {
	case LCS:
		return "lcs"
	case Myers:
		return "myers"
	case DiffMatchPatch:
		return "dmp"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "lcs":
		return LCS, nil
	case "myers":
		return Myers, nil
	case "dmp", "diffmatchpatch":
		return DiffMatchPatch, nil
	}
	return LCS, fmt.Errorf("unknown diff algorithm %q", name)
}

type config struct {
	algorithm Algorithm
}

// Option configures Diff.
type Option func(*config)

// WithAlgorithm selects the alignment algorithm.
func WithAlgorithm(a Algorithm) Option {
	return func(c *config) { c.algorithm = a }
}

// Diff aligns src and dst, comparing items by key, and returns spans covering both sequences in
// order.
func Diff[T any](src, dst []T, key func(T) string, opts ...Option) []Span {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	x := make([]string, len(src))
	for i, v := range src {
		x[i] = key(v)
	}
	y := make([]string, len(dst))
	for i, v := range dst {
		y[i] = key(v)
	}

	var script []Op
	switch cfg.algorithm {
	case Myers:
		script = myersScript(x, y)
	case DiffMatchPatch:
		script = dmpScript(x, y)
	default:
		script = lcsScript(x, y)
	}
	return Spans(script)
}

// Spans folds an edit script into spans. Runs of matches become Unchanged spans. The deletions
// and insertions between two runs of matches become a Replaced span as long as the shorter side,
// followed by a Deleted or Inserted span for the remainder.
func Spans(script []Op) []Span {
	var spans []Span
	src, dst := 0, 0
	for i := 0; i < len(script); {
		if script[i] == Match {
			n := 0
			for i < len(script) && script[i] == Match {
				n++
				i++
			}
			spans = append(spans, Span{Status: Unchanged, Src: src, Dst: dst, Length: n})
			src += n
			dst += n
			continue
		}

		deleted, inserted := 0, 0
		for i < len(script) && script[i] != Match {
			if script[i] == Delete {
				deleted++
			} else {
				inserted++
			}
			i++
		}
		if n := min(deleted, inserted); n > 0 {
			spans = append(spans, Span{Status: Replaced, Src: src, Dst: dst, Length: n})
			src += n
			dst += n
			deleted -= n
			inserted -= n
		}
		if deleted > 0 {
			spans = append(spans, Span{Status: Deleted, Src: src, Dst: -1, Length: deleted})
			src += deleted
		}
		if inserted > 0 {
			spans = append(spans, Span{Status: Inserted, Src: -1, Dst: dst, Length: inserted})
			dst += inserted
		}
	}
	return spans
}
