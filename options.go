package xmldelta

import (
	"log/slog"

	"github.com/dannyswat/xmldelta/internal/seqdiff"
)

// Algorithm selects how sibling and attribute lists are aligned.
type Algorithm = seqdiff.Algorithm

const (
	LCS            = seqdiff.LCS
	Myers          = seqdiff.Myers
	DiffMatchPatch = seqdiff.DiffMatchPatch
)

// ParseAlgorithm returns the algorithm named lcs, myers or dmp. An empty name selects LCS.
func ParseAlgorithm(name string) (Algorithm, error) {
	return seqdiff.ParseAlgorithm(name)
}

// Option configures a Differ.
type Option func(*Differ)

// WithNamespaces sets the reserved patch tokens.
func WithNamespaces(ns Namespaces) Option {
	return func(d *Differ) { d.ns = ns }
}

// WithPolicy sets the identification policy.
func WithPolicy(policy IdentificationPolicy) Option {
	return func(d *Differ) { d.policy = policy }
}

// WithAlgorithm sets the alignment algorithm.
func WithAlgorithm(a Algorithm) Option {
	return func(d *Differ) { d.algorithm = a }
}

// WithLogger sets the logger. Inputs passed through unchanged are reported at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Differ) {
		if logger != nil {
			d.logger = logger
		}
	}
}
