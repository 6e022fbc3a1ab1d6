// Package qpath 实现控件定位路径（QPath）的解析与序列化
//
// 语法:
//
//	PATH      = ['/'] SEGMENT ('/' SEGMENT)*
//	SEGMENT   = PRED ('&&' PRED)*
//	PRED      = Name OP '"' value '"' | Name OP "'" value "'"
//	OP        = '=' | '~='
//
// 例如 `/ClassName="Edit" && ProcessId="1234"/Instance="0"`。
// MaxDepth、Instance、UIType 为保留名，不参与属性匹配，而是写入 Segment 对应字段。
package qpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 保留的伪属性名（小写形式）
const (
	keyMaxDepth = "maxdepth"
	keyInstance = "instance"
	keyUIType   = "uitype"
)

// Operator 比较运算符
type Operator int

const (
	// OpEqual 精确匹配 (=)
	OpEqual Operator = iota
	// OpRegex 正则匹配 (~=)
	OpRegex
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpRegex:
		return "~="
	default:
		return "?"
	}
}

// Predicate 单个属性比较条件
type Predicate struct {
	Name  string
	Op    Operator
	Value string

	re *regexp.Regexp
}

// NewPredicate 创建属性条件，正则条件会在此时编译
func NewPredicate(name string, op Operator, value string) (Predicate, error) {
	p := Predicate{Name: name, Op: op, Value: value}
	if op == OpRegex {
		re, err := regexp.Compile(value)
		if err != nil {
			return Predicate{}, fmt.Errorf("无效的正则表达式 %q: %w", value, err)
		}
		p.re = re
	}
	return p, nil
}

// Key 返回用于比较的属性名（属性名大小写不敏感）
func (p Predicate) Key() string {
	return strings.ToLower(p.Name)
}

// Match 判断属性值是否满足条件
//
// 精确匹配时，若两侧都是十进制或 0x 十六进制整数则按数值比较，
// 都是 true/false/True/False 则按布尔比较，否则按字符串区分大小写比较。
func (p Predicate) Match(value string) bool {
	if p.Op == OpRegex {
		re := p.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(p.Value); err != nil {
				return false
			}
		}
		return re.MatchString(value)
	}

	if value == p.Value {
		return true
	}
	if a, ok := parseInteger(value); ok {
		if b, ok := parseInteger(p.Value); ok {
			return a == b
		}
	}
	if a, ok := parseBoolean(value); ok {
		if b, ok := parseBoolean(p.Value); ok {
			return a == b
		}
	}
	return false
}

// parseInteger 只接受十进制和 0x 前缀的十六进制
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg, s = true, rest
	}
	base := 10
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		base, s = 16, rest
	} else if rest, ok := strings.CutPrefix(s, "0X"); ok {
		base, s = 16, rest
	}
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// parseBoolean 只接受 true/false 及其首字母大写形式
func parseBoolean(s string) (bool, bool) {
	switch s {
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	}
	return false, false
}

func (p Predicate) String() string {
	return p.Name + p.Op.String() + quote(p.Value)
}

// Segment 路径中的一层
type Segment struct {
	Predicates []Predicate
	// MaxDepth 向下搜索的最大层数，0 表示不限
	MaxDepth int
	// Instance 在匹配结果中取第几个（从 0 开始，负数从末尾计）
	Instance    int
	HasInstance bool
	// UIType 切换后端，例如 "UIA"
	UIType string
}

// IsFilter 没有真实属性条件的段只作用于当前结果集，不向下搜索
func (s Segment) IsFilter() bool {
	return len(s.Predicates) == 0
}

// String 返回段的规范形式（不含前导 '/'）
func (s Segment) String() string {
	parts := make([]string, 0, len(s.Predicates)+3)
	if s.UIType != "" {
		parts = append(parts, "UIType="+quote(s.UIType))
	}
	for _, p := range s.Predicates {
		parts = append(parts, p.String())
	}
	if s.MaxDepth > 0 {
		parts = append(parts, "MaxDepth="+quote(strconv.Itoa(s.MaxDepth)))
	}
	if s.HasInstance {
		parts = append(parts, "Instance="+quote(strconv.Itoa(s.Instance)))
	}
	return strings.Join(parts, " && ")
}

// Path 解析后的定位路径
type Path struct {
	Segments []Segment
	raw      string
	// uiTypePos 每段 UIType 条件在原始输入中的偏移，-1 表示没有
	uiTypePos []int
}

// Raw 返回原始输入
func (p *Path) Raw() string {
	if p == nil {
		return ""
	}
	return p.raw
}

// String 返回规范形式，重新解析可得到等价的 Path
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Len 返回段数
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Segments)
}

// Prefix 返回前 n 段构成的路径，用于定位失败时报告出错的位置
func (p *Path) Prefix(n int) *Path {
	if n > len(p.Segments) {
		n = len(p.Segments)
	}
	sub := &Path{Segments: append([]Segment(nil), p.Segments[:n]...)}
	sub.raw = sub.String()
	return sub
}

// UITypeError 返回指向第 i 段 UIType 条件的 *ParseError，用于查找时发现该 UIType 不受支持
func (p *Path) UITypeError(i int, err error) *ParseError {
	pos := 0
	if i >= 0 && i < len(p.uiTypePos) && p.uiTypePos[i] >= 0 {
		pos = p.uiTypePos[i]
	}
	return &ParseError{Input: p.Raw(), Pos: pos, Msg: err.Error(), Err: err}
}

// Equal 判断两个路径结构是否等价（属性名大小写不敏感）
func (p *Path) Equal(o *Path) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i := range p.Segments {
		a, b := p.Segments[i], o.Segments[i]
		if a.MaxDepth != b.MaxDepth || a.HasInstance != b.HasInstance ||
			(a.HasInstance && a.Instance != b.Instance) ||
			!strings.EqualFold(a.UIType, b.UIType) ||
			len(a.Predicates) != len(b.Predicates) {
			return false
		}
		for j := range a.Predicates {
			pa, pb := a.Predicates[j], b.Predicates[j]
			if pa.Key() != pb.Key() || pa.Op != pb.Op || pa.Value != pb.Value {
				return false
			}
		}
	}
	return true
}

// MustParse 解析失败时 panic，用于包级变量
func MustParse(s string) *Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// quote 为值加双引号并转义
func quote(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
