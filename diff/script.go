package diff

import (
	"fmt"
	"slices"
	"strconv"
)

// Script renders a line revision as RCS delta-script lines.
func Script(r *Revision[string]) []string {
	var out []string
	for _, d := range r.deltas {
		switch d.kind {
		case Add:
			out = append(out, "a"+strconv.Itoa(d.Original.Anchor())+" "+strconv.Itoa(d.Revised.Size()))
			out = append(out, d.Revised.Elements...)
		case Delete:
			out = append(out, "d"+strconv.Itoa(d.Original.RCSFrom())+" "+strconv.Itoa(d.Original.Size()))
		case Change:
			out = append(out,
				"d"+strconv.Itoa(d.Original.RCSFrom())+" "+strconv.Itoa(d.Original.Size()),
				"a"+strconv.Itoa(d.Original.RCSTo())+" "+strconv.Itoa(d.Revised.Size()))
			out = append(out, d.Revised.Elements...)
		}
	}
	return out
}

// ParseScript reads an RCS delta script meant to be applied to source.
//
// Commands must be in ascending order and must not overlap. A delete
// immediately followed by an append at the end of the deleted range becomes
// a single Change. Deleted elements are taken from source, so the returned
// revision is complete and can be inverted.
func ParseScript(script, source []string) (*Revision[string], error) {
	r := NewRevision[string]()
	r.SetSourceSize(len(source))

	offset := 0   // revised position minus original position
	consumed := 0 // original lines before this index are settled
	for k := 0; k < len(script); {
		lineNo := k + 1
		cmd, at, count, ok := parseCommand(script[k])
		if !ok {
			return nil, &ScriptError{Line: lineNo, Msg: fmt.Sprintf("bad command %q", script[k])}
		}
		k++

		switch cmd {
		case 'd':
			pos := at - 1
			if pos < consumed || pos+count > len(source) {
				return nil, &ScriptError{Line: lineNo,
					Msg: fmt.Sprintf("delete of lines %d-%d out of range", at, at+count-1)}
			}
			orig := Chunk[string]{Position: pos, Elements: slices.Clone(source[pos : pos+count])}
			consumed = pos + count

			if k < len(script) {
				if next, nat, ncount, ok := parseCommand(script[k]); ok && next == 'a' && nat == pos+count {
					lines, err := scriptLines(script, k+1, ncount, k+1)
					if err != nil {
						return nil, err
					}
					k += 1 + ncount
					r.Add(Delta[string]{Original: orig,
						Revised: Chunk[string]{Position: pos + offset, Elements: lines}, kind: Change})
					offset += ncount - count
					continue
				}
			}
			r.Add(Delta[string]{Original: orig,
				Revised: Chunk[string]{Position: pos + offset}, kind: Delete})
			offset -= count

		case 'a':
			if at < consumed || at > len(source) {
				return nil, &ScriptError{Line: lineNo, Msg: fmt.Sprintf("append after line %d out of range", at)}
			}
			lines, err := scriptLines(script, k, count, lineNo)
			if err != nil {
				return nil, err
			}
			k += count
			r.Add(Delta[string]{Original: Chunk[string]{Position: at},
				Revised: Chunk[string]{Position: at + offset, Elements: lines}, kind: Add})
			offset += count
			consumed = at
		}
	}
	return r, nil
}

func scriptLines(script []string, from, count, lineNo int) ([]string, error) {
	if from+count > len(script) {
		return nil, &ScriptError{Line: lineNo,
			Msg: fmt.Sprintf("append expects %d lines, found %d", count, len(script)-from)}
	}
	return slices.Clone(script[from : from+count]), nil
}

// parseCommand parses "dN M" or "aN M".
func parseCommand(line string) (cmd byte, at, count int, ok bool) {
	if len(line) < 4 || (line[0] != 'a' && line[0] != 'd') {
		return 0, 0, 0, false
	}
	sp := -1
	for i := 1; i < len(line); i++ {
		if line[i] == ' ' {
			sp = i
			break
		}
	}
	if sp < 2 {
		return 0, 0, 0, false
	}
	at, err := strconv.Atoi(line[1:sp])
	if err != nil || at < 0 {
		return 0, 0, 0, false
	}
	count, err = strconv.Atoi(line[sp+1:])
	if err != nil || count < 1 {
		return 0, 0, 0, false
	}
	if line[0] == 'd' && at < 1 {
		return 0, 0, 0, false
	}
	return line[0], at, count, true
}
