package rcs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokSemi
	tokColon
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokSemi:
		return `";"`
	case tokColon:
		return `":"`
	case tokString:
		return "string"
	default:
		return strconv.Quote(t.text)
	}
}

type lexer struct {
	data   string
	pos    int
	line   int
	peeked *token
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, nil
	}
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\f' && c != '\v' {
			break
		}
		if c == '\n' {
			l.line++
		}
		l.pos++
	}
	if l.pos >= len(l.data) {
		return token{kind: tokEOF, line: l.line}, nil
	}
	start, line := l.pos, l.line
	switch l.data[l.pos] {
	case ';':
		l.pos++
		return token{kind: tokSemi, line: line}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, line: line}, nil
	case '@':
		var b strings.Builder
		l.pos++
		for {
			i := strings.IndexByte(l.data[l.pos:], '@')
			if i < 0 {
				return token{}, fmt.Errorf("line %d: unterminated string", line)
			}
			chunk := l.data[l.pos : l.pos+i]
			l.line += strings.Count(chunk, "\n")
			b.WriteString(chunk)
			l.pos += i + 1
			if l.pos < len(l.data) && l.data[l.pos] == '@' {
				b.WriteByte('@')
				l.pos++
				continue
			}
			return token{kind: tokString, text: b.String(), line: line}, nil
		}
	}
	for l.pos < len(l.data) && !strings.ContainsRune(" \t\n\r\f\v;:@", rune(l.data[l.pos])) {
		l.pos++
	}
	return token{kind: tokWord, text: l.data[start:l.pos], line: line}, nil
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		t, err := l.next()
		if err != nil {
			return t, err
		}
		l.peeked = &t
	}
	return *l.peeked, nil
}

type deltaRecord struct {
	node     *Node
	branches []Version
	next     Version
	line     int
	hasText  bool
}

type parser struct {
	lex          *lexer
	name         string
	pendingLocks []lockRecord
}

func (p *parser) fail(line int, format string, args ...any) error {
	return &FormatError{Name: p.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind, word string) (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return t, &FormatError{Name: p.name, Msg: err.Error()}
	}
	if t.kind != kind || (word != "" && t.text != word) {
		want := word
		if want == "" {
			want = token{kind: kind}.String()
		}
		return t, p.fail(t.line, "expected %s, found %s", want, t)
	}
	return t, nil
}

// optional reads a token of the given kind if one comes next.
func (p *parser) optional(kind tokenKind) (string, bool, error) {
	t, err := p.lex.peek()
	if err != nil {
		return "", false, &FormatError{Name: p.name, Msg: err.Error()}
	}
	if t.kind != kind {
		return "", false, nil
	}
	p.lex.next()
	return t.text, true, nil
}

func (p *parser) version(t token) (Version, error) {
	v, err := ParseVersion(t.text)
	if err != nil {
		return Version{}, &FormatError{Name: p.name, Line: t.line, Msg: "bad revision number", Err: err}
	}
	return v, nil
}

// skipPhrase consumes tokens up to and including the next ";".
func (p *parser) skipPhrase() error {
	for {
		t, err := p.lex.next()
		if err != nil {
			return &FormatError{Name: p.name, Msg: err.Error()}
		}
		switch t.kind {
		case tokSemi:
			return nil
		case tokEOF:
			return p.fail(t.line, "unexpected end of file")
		}
	}
}

// Load reads an archive in RCS file format.
func Load(name string, r io.Reader, opts ...Option) (*Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(name, string(data), opts...)
}

// Parse reads an archive in RCS file format from data.
func Parse(name, data string, opts ...Option) (*Archive, error) {
	a := newArchive(append([]Option{WithName(name)}, opts...)...)
	p := &parser{lex: &lexer{data: data, line: 1}, name: name}

	head, err := p.admin(a)
	if err != nil {
		return nil, err
	}
	records, order, err := p.deltas()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokWord, "desc"); err != nil {
		return nil, err
	}
	desc, err := p.expect(tokString, "")
	if err != nil {
		return nil, err
	}
	a.desc = desc.text
	if err := p.deltaTexts(records); err != nil {
		return nil, err
	}
	if err := link(a, p, head, records, order); err != nil {
		return nil, err
	}
	return a, nil
}

type lockRecord struct {
	user    string
	version Version
	line    int
}

func (p *parser) admin(a *Archive) (Version, error) {
	var head Version
	var locks []lockRecord
	headSet := false
	for {
		t, err := p.lex.peek()
		if err != nil {
			return head, &FormatError{Name: p.name, Msg: err.Error()}
		}
		if t.kind != tokWord {
			return head, p.fail(t.line, "unexpected %s in admin section", t)
		}
		if t.text != "" && t.text[0] >= '0' && t.text[0] <= '9' || t.text == "desc" {
			break
		}
		p.lex.next()

		switch t.text {
		case "head":
			if headSet {
				return head, &FormatError{Name: p.name, Line: t.line, Msg: "duplicate head", Err: ErrHeadAlreadySet}
			}
			headSet = true
			if s, ok, err := p.optional(tokWord); err != nil {
				return head, err
			} else if ok {
				if head, err = p.version(token{text: s, line: t.line}); err != nil {
					return head, err
				}
			}
		case "branch":
			if s, ok, err := p.optional(tokWord); err != nil {
				return head, err
			} else if ok {
				if a.branch, err = p.version(token{text: s, line: t.line}); err != nil {
					return head, err
				}
			}
		case "access":
			for {
				s, ok, err := p.optional(tokWord)
				if err != nil {
					return head, err
				}
				if !ok {
					break
				}
				a.users = append(a.users, s)
			}
		case "symbols", "locks":
			for {
				s, ok, err := p.optional(tokWord)
				if err != nil {
					return head, err
				}
				if !ok {
					break
				}
				if _, err := p.expect(tokColon, ""); err != nil {
					return head, err
				}
				vt, err := p.expect(tokWord, "")
				if err != nil {
					return head, err
				}
				v, err := p.version(vt)
				if err != nil {
					return head, err
				}
				if t.text == "symbols" {
					a.symbols[s] = v
				} else {
					locks = append(locks, lockRecord{user: s, version: v, line: vt.line})
				}
			}
		case "strict":
			a.strict = true
		case "comment", "expand":
			s, _, err := p.optional(tokString)
			if err != nil {
				return head, err
			}
			if t.text == "comment" {
				a.comment = s
			} else {
				a.expand = s
			}
		default:
			if err := p.skipPhrase(); err != nil {
				return head, err
			}
			continue
		}
		if _, err := p.expect(tokSemi, ""); err != nil {
			return head, err
		}
		// "locks ...;" without a following "strict;" means non-strict.
		if t.text == "locks" {
			a.strict = false
		}
	}
	if !headSet {
		return head, p.fail(1, "missing head")
	}
	p.pendingLocks = locks
	return head, nil
}

func (p *parser) deltas() (map[string]*deltaRecord, []string, error) {
	records := make(map[string]*deltaRecord)
	var order []string
	for {
		t, err := p.lex.peek()
		if err != nil {
			return nil, nil, &FormatError{Name: p.name, Msg: err.Error()}
		}
		if t.kind != tokWord || t.text == "desc" {
			return records, order, nil
		}
		if t.text[0] < '0' || t.text[0] > '9' {
			p.lex.next()
			if err := p.skipPhrase(); err != nil {
				return nil, nil, err
			}
			continue
		}
		p.lex.next()
		v, err := p.version(t)
		if err != nil {
			return nil, nil, err
		}
		if !v.IsRevision() {
			return nil, nil, p.fail(t.line, "%s is not a revision number", v)
		}
		if _, dup := records[v.String()]; dup {
			return nil, nil, p.fail(t.line, "duplicate revision %s", v)
		}
		rec := &deltaRecord{node: newNode(v), line: t.line}

		if _, err := p.expect(tokWord, "date"); err != nil {
			return nil, nil, err
		}
		dt, err := p.expect(tokWord, "")
		if err != nil {
			return nil, nil, err
		}
		if rec.node.Date, err = parseDate(dt.text); err != nil {
			return nil, nil, p.fail(dt.line, "bad date %q", dt.text)
		}
		if _, err := p.expect(tokSemi, ""); err != nil {
			return nil, nil, err
		}

		if _, err := p.expect(tokWord, "author"); err != nil {
			return nil, nil, err
		}
		at, err := p.expect(tokWord, "")
		if err != nil {
			return nil, nil, err
		}
		rec.node.Author = at.text
		if _, err := p.expect(tokSemi, ""); err != nil {
			return nil, nil, err
		}

		if _, err := p.expect(tokWord, "state"); err != nil {
			return nil, nil, err
		}
		state, _, err := p.optional(tokWord)
		if err != nil {
			return nil, nil, err
		}
		rec.node.State = state
		if _, err := p.expect(tokSemi, ""); err != nil {
			return nil, nil, err
		}

		if _, err := p.expect(tokWord, "branches"); err != nil {
			return nil, nil, err
		}
		for {
			bt, err := p.lex.peek()
			if err != nil {
				return nil, nil, &FormatError{Name: p.name, Msg: err.Error()}
			}
			if bt.kind != tokWord {
				break
			}
			p.lex.next()
			bv, err := p.version(bt)
			if err != nil {
				return nil, nil, err
			}
			rec.branches = append(rec.branches, bv)
		}
		if _, err := p.expect(tokSemi, ""); err != nil {
			return nil, nil, err
		}

		if _, err := p.expect(tokWord, "next"); err != nil {
			return nil, nil, err
		}
		if s, ok, err := p.optional(tokWord); err != nil {
			return nil, nil, err
		} else if ok {
			if rec.next, err = p.version(token{text: s, line: t.line}); err != nil {
				return nil, nil, err
			}
		}
		if _, err := p.expect(tokSemi, ""); err != nil {
			return nil, nil, err
		}

		records[v.String()] = rec
		order = append(order, v.String())
	}
}

func (p *parser) deltaTexts(records map[string]*deltaRecord) error {
	for {
		t, err := p.lex.next()
		if err != nil {
			return &FormatError{Name: p.name, Msg: err.Error()}
		}
		if t.kind == tokEOF {
			return nil
		}
		if t.kind != tokWord {
			return p.fail(t.line, "expected revision number, found %s", t)
		}
		v, err := p.version(t)
		if err != nil {
			return err
		}
		rec, ok := records[v.String()]
		if !ok {
			return p.fail(t.line, "text for unknown revision %s", v)
		}
		if rec.hasText {
			return p.fail(t.line, "duplicate text for revision %s", v)
		}
		if _, err := p.expect(tokWord, "log"); err != nil {
			return err
		}
		logText, err := p.expect(tokString, "")
		if err != nil {
			return err
		}
		rec.node.Log = logText.text
		for {
			kw, err := p.expect(tokWord, "")
			if err != nil {
				return err
			}
			if kw.text == "text" {
				break
			}
			if err := p.skipPhrase(); err != nil {
				return err
			}
		}
		body, err := p.expect(tokString, "")
		if err != nil {
			return err
		}
		rec.node.text = splitLines(body.text)
		rec.hasText = true
	}
}

// link builds the arena from the parsed records and checks the tree.
func link(a *Archive, p *parser, head Version, records map[string]*deltaRecord, order []string) error {
	for _, key := range order {
		a.insert(records[key].node)
	}
	for _, key := range order {
		rec := records[key]
		n := rec.node
		if !rec.hasText {
			return p.fail(rec.line, "no text for revision %s", n.Version)
		}
		if !rec.next.IsZero() {
			next, ok := a.FindNode(rec.next)
			if !ok {
				return p.fail(rec.line, "next revision %s of %s not found", rec.next, n.Version)
			}
			if n.kind == trunkNode {
				if !next.Version.IsTrunk() || !next.Version.Less(n.Version) {
					return p.fail(rec.line, "trunk revision %s cannot precede %s", next.Version, n.Version)
				}
				n.parent, next.child = next.id, n.id
			} else {
				if next.Version.Len() != n.Version.Len() || !next.Version.Greater(n.Version) ||
					!next.Version.Base(n.Version.Len()-1).Equal(n.Version.Base(n.Version.Len()-1)) {
					return p.fail(rec.line, "branch revision %s cannot follow %s", next.Version, n.Version)
				}
				n.child, next.parent = next.id, n.id
			}
		}
		for _, bv := range rec.branches {
			b, ok := a.FindNode(bv)
			if !ok {
				return p.fail(rec.line, "branch %s of %s not found", bv, n.Version)
			}
			l := n.Version.Len()
			if bv.Len() != l+2 || !bv.Base(l).Equal(n.Version) {
				return p.fail(rec.line, "%s is not a branch of %s", bv, n.Version)
			}
			b.parent = n.id
			n.addBranch(bv.At(l), b.id)
		}
	}

	if head.IsZero() {
		if len(order) > 0 {
			return p.fail(1, "revisions present but no head")
		}
		return nil
	}
	h, ok := a.FindNode(head)
	if !ok {
		return p.fail(1, "head revision %s not found", head)
	}
	if h.kind != trunkNode || h.child != noNode {
		return p.fail(1, "head %s is not the top of the trunk", head)
	}
	a.head = h.id

	for _, l := range p.pendingLocks {
		n, ok := a.FindNode(l.version)
		if !ok {
			return p.fail(l.line, "lock on unknown revision %s", l.version)
		}
		n.Locker = l.user
	}
	return nil
}

// parseDate reads RCS dates, with two-digit years meaning 19xx.
func parseDate(s string) (time.Time, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	var f [6]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad date %q", s)
		}
		f[i] = n
	}
	if f[0] < 100 {
		f[0] += 1900
	}
	return time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC), nil
}
