package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified renders r, computed against original, as a unified diff.
func Unified(origName, newName string, original []string, r *Revision[string], context int) ([]byte, error) {
	if n, ok := r.SourceSize(); ok && n != len(original) {
		return nil, fmt.Errorf("unified diff: revision expects %d lines, got %d", n, len(original))
	}
	if context < 0 {
		context = 0
	}
	fd := &godiff.FileDiff{OrigName: origName, NewName: newName}
	for _, group := range groupDeltas(r.deltas, context) {
		fd.Hunks = append(fd.Hunks, buildHunk(original, group, context))
	}
	if len(fd.Hunks) == 0 {
		return nil, nil
	}
	return godiff.PrintFileDiff(fd)
}

// groupDeltas splits deltas into runs whose context windows overlap.
func groupDeltas(deltas []Delta[string], context int) [][]Delta[string] {
	var groups [][]Delta[string]
	for i, d := range deltas {
		if i > 0 {
			prev := deltas[i-1]
			prevEnd := prev.Original.Position + prev.Original.Size()
			if d.Original.Position-prevEnd <= 2*context {
				groups[len(groups)-1] = append(groups[len(groups)-1], d)
				continue
			}
		}
		groups = append(groups, []Delta[string]{d})
	}
	return groups
}

func buildHunk(original []string, group []Delta[string], context int) *godiff.Hunk {
	first, last := group[0], group[len(group)-1]
	start := max(first.Original.Position-context, 0)
	end := min(last.Original.Position+last.Original.Size()+context, len(original))

	var body bytes.Buffer
	origLines, newLines := 0, 0
	pos := start
	for _, d := range group {
		for ; pos < d.Original.Position; pos++ {
			writeHunkLine(&body, ' ', original[pos])
			origLines++
			newLines++
		}
		for _, l := range d.Original.Elements {
			writeHunkLine(&body, '-', l)
			origLines++
		}
		for _, l := range d.Revised.Elements {
			writeHunkLine(&body, '+', l)
			newLines++
		}
		pos += d.Original.Size()
	}
	for ; pos < end; pos++ {
		writeHunkLine(&body, ' ', original[pos])
		origLines++
		newLines++
	}

	// The revised position of the first delta fixes the offset between
	// the two files at the start of the hunk.
	newStart := first.Revised.Position - (first.Original.Position - start)
	return &godiff.Hunk{
		OrigStartLine: int32(hunkStart(start, origLines)),
		OrigLines:     int32(origLines),
		NewStartLine:  int32(hunkStart(newStart, newLines)),
		NewLines:      int32(newLines),
		Body:          body.Bytes(),
	}
}

func hunkStart(pos, lines int) int {
	if lines == 0 {
		return pos
	}
	return pos + 1
}

func writeHunkLine(b *bytes.Buffer, op byte, line string) {
	b.WriteByte(op)
	b.WriteString(line)
	b.WriteByte('\n')
}

// Words renders r with intra-line markup: removed text as [-...-] and
// added text as {+...+}. Changed lines are compared pairwise.
func Words(r *Revision[string]) string {
	dmp := diffmatchpatch.New()
	var b strings.Builder
	for _, d := range r.deltas {
		switch d.kind {
		case Add:
			fmt.Fprintf(&b, "%da%s\n", d.Original.Anchor(), d.Revised.RangeString())
		case Delete:
			fmt.Fprintf(&b, "%sd%d\n", d.Original.RangeString(), d.Revised.Anchor())
		case Change:
			fmt.Fprintf(&b, "%sc%s\n", d.Original.RangeString(), d.Revised.RangeString())
		}
		paired := min(d.Original.Size(), d.Revised.Size())
		for k := 0; k < paired; k++ {
			diffs := dmp.DiffMain(d.Original.Elements[k], d.Revised.Elements[k], false)
			diffs = dmp.DiffCleanupSemantic(diffs)
			for _, part := range diffs {
				switch part.Type {
				case diffmatchpatch.DiffEqual:
					b.WriteString(part.Text)
				case diffmatchpatch.DiffDelete:
					b.WriteString("[-" + part.Text + "-]")
				case diffmatchpatch.DiffInsert:
					b.WriteString("{+" + part.Text + "+}")
				}
			}
			b.WriteByte('\n')
		}
		for _, l := range d.Original.Elements[paired:] {
			b.WriteString("[-" + l + "-]\n")
		}
		for _, l := range d.Revised.Elements[paired:] {
			b.WriteString("{+" + l + "+}\n")
		}
	}
	return b.String()
}
