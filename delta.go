package xmldelta

import (
	"log/slog"
)

// Differ computes and applies patch documents between text versions of one element tree. A Differ
// is immutable and safe for concurrent use.
type Differ struct {
	ns        Namespaces
	policy    IdentificationPolicy
	algorithm Algorithm
	logger    *slog.Logger
}

// New returns a Differ using the p/s namespaces, DefaultPolicy and LCS alignment unless
// configured otherwise.
func New(opts ...Option) *Differ {
	d := &Differ{
		ns:        DefaultNamespaces(),
		policy:    DefaultPolicy(),
		algorithm: LCS,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDiffer = New()

// GetDelta returns the patch document that turns base into modified, using the default Differ.
func GetDelta(modified, base string) (string, error) {
	return defaultDiffer.GetDelta(modified, base)
}

// ApplyDelta applies a patch document to base, using the default Differ.
func ApplyDelta(base, delta string) (string, error) {
	return defaultDiffer.ApplyDelta(base, delta)
}

// IsPatch reports whether text is a patch document written with the default namespaces.
func IsPatch(text string) bool {
	return defaultDiffer.IsPatch(text)
}

// GetDelta returns the patch document that turns base into modified. If either input cannot be
// parsed, modified is returned as is so that callers always get a usable value.
func (d *Differ) GetDelta(modified, base string) (string, error) {
	original, err := parse(base, SideOriginal)
	if err != nil {
		d.logger.Debug("storing modified value without delta", "error", err)
		return modified, nil
	}
	changed, err := parse(modified, SideModified)
	if err != nil {
		d.logger.Debug("storing modified value without delta", "error", err)
		return modified, nil
	}

	patch, err := Diff(original, changed, d.policy, d.ns, UseAlgorithm(d.algorithm))
	if err != nil {
		return "", err
	}
	return Render(patch), nil
}

// ApplyDelta applies a patch document to base and returns the merged document. A delta that is
// not a patch document is returned as is. A base that cannot be parsed is an error.
func (d *Differ) ApplyDelta(base, delta string) (string, error) {
	merged, err := parse(base, SideBase)
	if err != nil {
		return "", err
	}
	patch, err := parse(delta, SidePatch)
	if err != nil {
		d.logger.Debug("delta is not a document, using it as is", "error", err)
		return delta, nil
	}
	if !IsPatchElement(patch, d.ns) {
		return delta, nil
	}

	if err := Merge(merged, patch, d.policy, d.ns); err != nil {
		return "", err
	}
	return Render(merged), nil
}

// IsPatch reports whether text is a patch document.
func (d *Differ) IsPatch(text string) bool {
	el, err := parse(text, SidePatch)
	return err == nil && IsPatchElement(el, d.ns)
}

// Namespaces returns the reserved patch tokens of d.
func (d *Differ) Namespaces() Namespaces { return d.ns }

// Policy returns the identification policy of d.
func (d *Differ) Policy() IdentificationPolicy { return d.policy }
