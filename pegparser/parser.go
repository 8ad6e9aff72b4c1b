package pegparser

import (
	"fmt"
	"io"
	"strings"
)

// CommentKeySuffix marks the sibling key that holds the `/* comment */`
// written next to a key or value, e.g. "fileRef" and "fileRef_comment".
const CommentKeySuffix = "_comment"

const (
	HeadCommentKey = "headComment"
	ProjectKey     = "project"

	objectsKey = "objects"
)

type SyntaxError struct {
	Filename string
	Line     int
	Col      int
	Msg      string
}

func (e *SyntaxError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

type parser struct {
	filename string
	src      []byte
	pos      int
	line     int
	col      int
}

// ParseReader reads an ASCII property list. The result holds the leading
// `//` comment under "headComment" and the root dictionary under "project".
// Strings keep their quotes so the document can be written back unchanged.
func ParseReader(filename string, r io.Reader) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}
	p := &parser{filename: filename, src: data, line: 1, col: 1}
	return p.parseFile()
}

func ParseString(s string) (Object, error) {
	return ParseReader("", strings.NewReader(s))
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{
		Filename: p.filename,
		Line:     p.line,
		Col:      p.col,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:min(len(p.src), p.pos+len(s))]), s)
}

func (p *parser) advance(n int) {
	for i := 0; i < n && !p.eof(); i++ {
		if p.src[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.advance(1)
	}
}

// skips whitespace, section markers and other comments nobody owns
func (p *parser) skipSpaceAndComments() error {
	for {
		p.skipSpace()
		switch {
		case p.hasPrefix("/*"):
			if _, err := p.readBlockComment(); err != nil {
				return err
			}
		case p.hasPrefix("//"):
			p.readLineComment()
		default:
			return nil
		}
	}
}

func (p *parser) readLineComment() string {
	p.advance(2)
	start := p.pos
	for !p.eof() && p.peek() != '\n' {
		p.advance(1)
	}
	return strings.TrimSpace(string(p.src[start:p.pos]))
}

func (p *parser) readBlockComment() (string, error) {
	p.advance(2)
	start := p.pos
	for !p.hasPrefix("*/") {
		if p.eof() {
			return "", p.errorf("unterminated comment")
		}
		p.advance(1)
	}
	text := string(p.src[start:p.pos])
	p.advance(2)
	return strings.TrimSpace(text), nil
}

// optional comment after a key or value
func (p *parser) readTrailingComment() (string, error) {
	p.skipSpace()
	if !p.hasPrefix("/*") {
		return "", nil
	}
	return p.readBlockComment()
}

func (p *parser) parseFile() (Object, error) {
	contents := NewObject()
	p.skipSpace()
	if p.hasPrefix("//") {
		contents.Set(HeadCommentKey, p.readLineComment())
	}
	if err := p.skipSpaceAndComments(); err != nil {
		return Object{}, err
	}
	if p.peek() != '{' {
		return Object{}, p.errorf("expected '{' at start of document")
	}
	project, err := p.parseObject()
	if err != nil {
		return Object{}, err
	}
	if raw, ok := project.Get(objectsKey); ok {
		objects, ok := raw.(Object)
		if !ok {
			return Object{}, p.errorf("objects is not a dictionary")
		}
		sections, err := p.groupSections(objects)
		if err != nil {
			return Object{}, err
		}
		project.Set(objectsKey, sections)
	}
	contents.Set(ProjectKey, project)
	if err := p.skipSpaceAndComments(); err != nil {
		return Object{}, err
	}
	if !p.eof() {
		return Object{}, p.errorf("unexpected %q after document", p.peek())
	}
	return contents, nil
}

// groupSections regroups the flat objects dictionary by isa, one section per
// kind in order of first appearance.
func (p *parser) groupSections(objects Object) (Object, error) {
	sections := NewObject()
	for _, item := range objects.Items() {
		id := item.key.(string)
		if strings.HasSuffix(id, CommentKeySuffix) {
			continue
		}
		obj, ok := item.data.(Object)
		if !ok {
			return Object{}, p.errorf("object %s is not a dictionary", id)
		}
		isa := obj.GetString("isa")
		if isa == "" {
			return Object{}, p.errorf("object %s has no isa", id)
		}
		section := sections.GetObject(isa)
		if !sections.Has(isa) {
			sections.Set(isa, section)
		}
		section.Set(id, obj)
		if comment := objects.GetString(id + CommentKeySuffix); comment != "" {
			section.Set(id+CommentKeySuffix, comment)
		}
	}
	return sections, nil
}

func (p *parser) parseValue() (interface{}, error) {
	if err := p.skipSpaceAndComments(); err != nil {
		return nil, err
	}
	switch p.peek() {
	case '{':
		return p.parseObject()
	case '(':
		return p.parseArray()
	case '<':
		return p.parseData()
	default:
		return p.parseString()
	}
}

func (p *parser) parseObject() (Object, error) {
	obj := NewObject()
	p.advance(1) // {
	for {
		if err := p.skipSpaceAndComments(); err != nil {
			return Object{}, err
		}
		if p.eof() {
			return Object{}, p.errorf("unterminated dictionary")
		}
		if p.peek() == '}' {
			p.advance(1)
			return obj, nil
		}
		key, err := p.parseString()
		if err != nil {
			return Object{}, err
		}
		if obj.Has(key) {
			return Object{}, p.errorf("duplicate key %s", key)
		}
		keyComment, err := p.readTrailingComment()
		if err != nil {
			return Object{}, err
		}
		p.skipSpace()
		if p.peek() != '=' {
			return Object{}, p.errorf("expected '=' after key %s", key)
		}
		p.advance(1)
		value, err := p.parseValue()
		if err != nil {
			return Object{}, err
		}
		valueComment, err := p.readTrailingComment()
		if err != nil {
			return Object{}, err
		}
		p.skipSpace()
		if p.peek() != ';' {
			return Object{}, p.errorf("expected ';' after value of %s", key)
		}
		p.advance(1)

		obj.Set(key, value)
		if keyComment != "" {
			obj.Set(key+CommentKeySuffix, keyComment)
		} else if valueComment != "" {
			obj.Set(key+CommentKeySuffix, valueComment)
		}
	}
}

func (p *parser) parseArray() ([]interface{}, error) {
	list := []interface{}{}
	p.advance(1) // (
	for {
		if err := p.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.peek() == ')' {
			p.advance(1)
			return list, nil
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		comment, err := p.readTrailingComment()
		if err != nil {
			return nil, err
		}
		if s, ok := value.(string); ok && comment != "" {
			list = append(list, NewObjectWithData([]ObjectItem{
				NewObjectItem("value", s),
				NewObjectItem("comment", comment),
			}))
		} else {
			list = append(list, value)
		}
		p.skipSpace()
		if p.peek() == ',' {
			p.advance(1)
		} else if p.peek() != ')' {
			return nil, p.errorf("expected ',' or ')' in array")
		}
	}
}

func (p *parser) parseData() (string, error) {
	start := p.pos
	for p.peek() != '>' {
		if p.eof() {
			return "", p.errorf("unterminated data literal")
		}
		p.advance(1)
	}
	p.advance(1)
	return string(p.src[start:p.pos]), nil
}

func isBareDelimiter(c byte) bool {
	switch c {
	case '{', '}', '(', ')', '=', ';', ',', '"':
		return true
	}
	return isSpace(c)
}

func (p *parser) parseString() (string, error) {
	if p.eof() {
		return "", p.errorf("unexpected end of input")
	}
	start := p.pos
	if p.peek() == '"' {
		p.advance(1)
		for p.peek() != '"' {
			if p.eof() {
				return "", p.errorf("unterminated string")
			}
			if p.peek() == '\\' {
				p.advance(1)
			}
			p.advance(1)
		}
		p.advance(1)
		return string(p.src[start:p.pos]), nil
	}
	for !p.eof() && !isBareDelimiter(p.peek()) && !p.hasPrefix("/*") {
		p.advance(1)
	}
	if p.pos == start {
		return "", p.errorf("unexpected %q", p.peek())
	}
	return string(p.src[start:p.pos]), nil
}
