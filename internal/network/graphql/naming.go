package graphql

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var validName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// pascal turns a table name into a GraphQL type stem: order_items -> OrderItems
func pascal(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "T" + out
	}
	return out
}

// camel lowers the first letter of a pascal name: OrderItems -> orderItems
func camel(name string) string {
	p := pascal(name)
	return strings.ToLower(p[:1]) + p[1:]
}

// fieldName keeps a column name when it is a valid GraphQL name, otherwise
// replaces offending characters with underscores
func fieldName(column string) string {
	if validName.MatchString(column) && !strings.HasPrefix(column, "__") {
		return column
	}
	var b strings.Builder
	for _, r := range column {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), "_")
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "f_" + out
	}
	return out
}

// namer hands out unique names within one scope
type namer map[string]bool

func (n namer) unique(name string) string {
	candidate := name
	for i := 2; n[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	n[candidate] = true
	return candidate
}
