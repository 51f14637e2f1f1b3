package websvc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArrayLiteral 解析数组的字面量，格式为方括号包裹、逗号分隔的一组值，如 [1,"a",true,null] 。
// 支持的值：
//   - 字符串，使用单引号或双引号包裹，反斜杠用于转义；
//   - 数值，可以有前导的负号，至多一个小数点；没有小数点的为 int64 ，否则为 float64 ；
//   - true 、 false 、 null ，大小写不敏感；
//   - 嵌套的数组，至多嵌套 MaxArrayDepth 层。
//
// 值之间可以有空白。格式错误时返回 error 。
func ParseArrayLiteral(s string) ([]any, error) {
	p := &arrayLiteralParser{src: s}
	p.skipSpaces()

	res, err := p.parseArray()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing content")
	}
	return res, nil
}

// MaxArrayDepth 是数组字面量允许的最大嵌套层数，最外层计为 1 。
const MaxArrayDepth = 64

type arrayLiteralParser struct {
	src   string
	pos   int
	depth int
}

func (p *arrayLiteralParser) errorf(format string, args ...any) error {
	return fmt.Errorf("array literal at %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *arrayLiteralParser) skipSpaces() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *arrayLiteralParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *arrayLiteralParser) parseArray() ([]any, error) {
	if p.peek() != '[' {
		return nil, p.errorf("'[' expected")
	}

	p.depth++
	if p.depth > MaxArrayDepth {
		return nil, p.errorf("nested too deep")
	}
	defer func() { p.depth-- }()
	p.pos++

	res := make([]any, 0)
	p.skipSpaces()
	if p.peek() == ']' {
		p.pos++
		return res, nil
	}

	for {
		p.skipSpaces()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		res = append(res, v)

		p.skipSpaces()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return res, nil
		default:
			return nil, p.errorf("',' or ']' expected")
		}
	}
}

func (p *arrayLiteralParser) parseValue() (any, error) {
	c := p.peek()
	switch {
	case c == '[':
		return p.parseArray()

	case c == '"' || c == '\'':
		return p.parseString(c)

	case c == '-' || isDigit(c):
		return p.parseNumber()

	case c == 0:
		return nil, p.errorf("value expected")
	}
	return p.parseKeyword()
}

func (p *arrayLiteralParser) parseString(quote byte) (string, error) {
	p.pos++ // 开头的引号。

	b := new(strings.Builder)
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++

		switch c {
		case quote:
			return b.String(), nil

		case '\\':
			if p.pos >= len(p.src) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}

		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *arrayLiteralParser) parseNumber() (any, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}

	digits, dots := 0, 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isDigit(c) {
			digits++
		} else if c == '.' {
			dots++
			if dots > 1 {
				return nil, p.errorf("too many decimal points")
			}
		} else {
			break
		}
		p.pos++
	}

	text := p.src[start:p.pos]
	if digits == 0 || text[len(text)-1] == '.' {
		return nil, p.errorf("malformed number '%s'", text)
	}

	if dots == 0 {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.errorf("integer out of range '%s'", text)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("malformed number '%s'", text)
	}
	return f, nil
}

func (p *arrayLiteralParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}

	word := strings.ToLower(p.src[start:p.pos])
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}

	p.pos = start
	return nil, p.errorf("unexpected value")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
