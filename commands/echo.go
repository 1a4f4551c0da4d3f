package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/clam/core/vos"
)

var simpleEscapes = map[byte]byte{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\\': '\\',
	'b':  '\b',
	'a':  '\a',
	'f':  '\f',
	'v':  '\v',
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// unescape interprets the backslash escapes echo -e supports. stop is set
// when \c ended the output early.
func unescape(s string) (out string, stop bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}

		i++
		switch c := s[i]; c {
		case 'c':
			return sb.String(), true

		case '0':
			// \0nnn, up to three octal digits.
			end := i + 1
			for end < len(s) && end < i+4 && '0' <= s[end] && s[end] <= '7' {
				end++
			}
			value, _ := strconv.ParseUint(s[i+1:end], 8, 16)
			sb.WriteByte(byte(value))
			i = end - 1

		case 'x':
			// \xHH, one or two hex digits.
			end := i + 1
			for end < len(s) && end < i+3 && isHexDigit(s[end]) {
				end++
			}
			if end == i+1 {
				sb.WriteString(`\x`)
				continue
			}
			value, _ := strconv.ParseUint(s[i+1:end], 16, 8)
			sb.WriteByte(byte(value))
			i = end - 1

		default:
			if replacement, ok := simpleEscapes[c]; ok {
				sb.WriteByte(replacement)
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(c)
			}
		}
	}
	return sb.String(), false
}

// Echo implements a limited echo command.
func Echo(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "echo [-neE] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	escaped := opt.Bool('e', "interpret backslash escapes")
	raw := opt.Bool('E', "don't interpret backslash escapes (default)")
	noNewline := opt.Bool('n', "do not output the trailing newline")

	return cmd.Run(virtOS, func() int {
		w := virtOS.Stdout()
		for i, arg := range opt.Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}

			if *escaped && !*raw {
				var stop bool
				if arg, stop = unescape(arg); stop {
					fmt.Fprint(w, arg)
					return 0
				}
			}

			fmt.Fprint(w, arg)
		}

		if !*noNewline {
			fmt.Fprintln(w)
		}

		return 0
	})
}

var _ vos.ProcessFunc = Echo

func init() {
	mustAddBinCmd("echo", Echo)
}
