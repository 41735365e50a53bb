package argv

import "strings"

// Canonical renders an argument vector as a single shell-quoted string.
// It is used for logs and audit lines only; nothing executes it.
//
// Quoting rules:
//   - Simple args (alphanumeric and -_./:@+=,): used as-is
//   - Anything else: wrapped in single quotes
//   - Embedded single quotes: the quoted run is closed, a backslash-escaped
//     quote is emitted, and a new run is opened
//
// Examples:
//
//	["module", "list"]       → "module list"
//	["echo", "hello world"]  → "echo 'hello world'"
//	["it's"]                 → "'it'\''s'"
func Canonical(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(c rune) bool { return !isSafeChar(c) }) < 0 {
		return s
	}

	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		if c == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func isSafeChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		strings.ContainsRune("-_./:@+=,", c)
}
