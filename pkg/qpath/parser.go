package qpath

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseError 路径语法错误
type ParseError struct {
	Input string
	// Pos 出错位置（字节偏移）
	Pos int
	Msg string
	// Err 底层原因，可能为 nil
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("QPath 语法错误 (位置 %d): %s: %q", e.Pos, e.Msg, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parser 单次解析的状态
type parser struct {
	in  string
	pos int
}

// Parse 解析 QPath 字符串
func Parse(s string) (*Path, error) {
	p := &parser{in: s}
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	path.raw = s
	return path, nil
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Input: p.in, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.in[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) parsePath() (*Path, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(0, "路径为空")
	}
	if p.peek() == '/' {
		p.pos++
	}

	path := &Path{}
	for {
		seg, uiPos, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		path.Segments = append(path.Segments, seg)
		path.uiTypePos = append(path.uiTypePos, uiPos)

		p.skipSpace()
		if p.eof() {
			return path, nil
		}
		if p.peek() != '/' {
			return nil, p.errorf(p.pos, "期望 '/' 或 '&&'")
		}
		p.pos++
	}
}

func (p *parser) parseSegment() (Segment, int, error) {
	var seg Segment
	var seenDepth, seenInstance bool
	start := p.pos
	uiPos := -1

	p.skipSpace()
	if p.eof() || p.peek() == '/' {
		return seg, uiPos, p.errorf(p.pos, "空的路径段")
	}

	for {
		p.skipSpace()
		namePos := p.pos
		name, op, value, err := p.parsePredicate()
		if err != nil {
			return seg, uiPos, err
		}

		switch strings.ToLower(name) {
		case keyMaxDepth:
			if op != OpEqual || seenDepth {
				return seg, uiPos, p.errorf(namePos, "MaxDepth 只能出现一次且必须使用 '='")
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 1 {
				return seg, uiPos, p.errorf(namePos, "MaxDepth 必须是正整数: %q", value)
			}
			seg.MaxDepth = n
			seenDepth = true
		case keyInstance:
			if op != OpEqual || seenInstance {
				return seg, uiPos, p.errorf(namePos, "Instance 只能出现一次且必须使用 '='")
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return seg, uiPos, p.errorf(namePos, "Instance 必须是整数: %q", value)
			}
			seg.Instance = n
			seg.HasInstance = true
			seenInstance = true
		case keyUIType:
			if op != OpEqual || seg.UIType != "" {
				return seg, uiPos, p.errorf(namePos, "UIType 只能出现一次且必须使用 '='")
			}
			if strings.TrimSpace(value) == "" {
				return seg, uiPos, p.errorf(namePos, "UIType 不能为空")
			}
			seg.UIType = strings.TrimSpace(value)
			uiPos = namePos
		default:
			pred, err := NewPredicate(name, op, value)
			if err != nil {
				return seg, uiPos, p.errorf(namePos, "%v", err)
			}
			seg.Predicates = append(seg.Predicates, pred)
		}

		p.skipSpace()
		if strings.HasPrefix(p.in[p.pos:], "&&") {
			p.pos += 2
			continue
		}
		break
	}

	if seg.IsFilter() && seg.MaxDepth > 0 {
		return seg, uiPos, p.errorf(start, "MaxDepth 需要与属性条件一起使用")
	}
	return seg, uiPos, nil
}

// parsePredicate 解析 Name OP "value"
func (p *parser) parsePredicate() (string, Operator, string, error) {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.in[p.pos:])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	if p.pos == start {
		if p.eof() || p.peek() == '/' {
			return "", 0, "", p.errorf(p.pos, "'&&' 之后缺少条件")
		}
		return "", 0, "", p.errorf(p.pos, "期望属性名")
	}
	name := p.in[start:p.pos]

	p.skipSpace()
	var op Operator
	switch {
	case strings.HasPrefix(p.in[p.pos:], "~="):
		op = OpRegex
		p.pos += 2
	case p.peek() == '=':
		op = OpEqual
		p.pos++
	default:
		return "", 0, "", p.errorf(p.pos, "属性 %s 之后期望 '=' 或 '~='", name)
	}

	p.skipSpace()
	value, err := p.parseQuoted()
	if err != nil {
		return "", 0, "", err
	}
	return name, op, value, nil
}

// parseQuoted 解析双引号或单引号字符串，支持转义同种引号和 \\，其余反斜杠原样保留
func (p *parser) parseQuoted() (string, error) {
	q := p.peek()
	if q != '"' && q != '\'' {
		return "", p.errorf(p.pos, "属性值必须使用引号")
	}
	open := p.pos
	p.pos++

	var b strings.Builder
	for !p.eof() {
		c := p.in[p.pos]
		switch c {
		case q:
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 < len(p.in) && (p.in[p.pos+1] == q || p.in[p.pos+1] == '\\') {
				b.WriteByte(p.in[p.pos+1])
				p.pos += 2
				continue
			}
			b.WriteByte(c)
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf(open, "引号未闭合")
}
