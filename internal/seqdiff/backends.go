package seqdiff

import (
	"unicode/utf8"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"znkr.io/diff"
)

func myersScript(x, y []string) []Op {
	edits := diff.Edits(x, y, diff.Minimal())
	script := make([]Op, len(edits))
	for i, e := range edits {
		switch e.Op {
		case diff.Match:
			script[i] = Match
		case diff.Delete:
			script[i] = Delete
		case diff.Insert:
			script[i] = Insert
		}
	}
	return script
}

// dmpScript gives every distinct key its own rune and lets diff-match-patch align the two rune
// sequences.
func dmpScript(x, y []string) []Op {
	runes := map[string]rune{}
	xr := keyRunes(runes, x)
	yr := keyRunes(runes, y)

	diffs := diffpatch.New().DiffMainRunes(xr, yr, false)
	script := make([]Op, 0, len(x)+len(y))
	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffpatch.DiffEqual:
			op = Match
		case diffpatch.DiffDelete:
			op = Delete
		case diffpatch.DiffInsert:
			op = Insert
		}
		for range utf8.RuneCountInString(d.Text) {
			script = append(script, op)
		}
	}
	return script
}

func keyRunes(m map[string]rune, keys []string) []rune {
	rs := make([]rune, len(keys))
	for i, k := range keys {
		r, ok := m[k]
		if !ok {
			r = rune(len(m))
			// Surrogates do not survive the round trip through a Go string.
			if r >= 0xD800 {
				r += 0x800
			}
			m[k] = r
		}
		rs[i] = r
	}
	return rs
}
