package resource

import "fmt"

// Code is the result code of a remote operation.
type Code int

// Result codes. CodeSuccess is the only non-failure value.
const (
	CodeSuccess Code = iota
	CodeError
	CodeNotFound
	CodeForbidden
	CodeTimeout
	CodeSendFailed
)

var codeNames = map[Code]string{
	CodeSuccess:    "success",
	CodeError:      "error",
	CodeNotFound:   "not_found",
	CodeForbidden:  "forbidden",
	CodeTimeout:    "timeout",
	CodeSendFailed: "send_failed",
}

// String returns the snake_case name of the code.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// OK reports whether the code signals success.
func (c Code) OK() bool {
	return c == CodeSuccess
}

// ParseCode maps a code name back to its Code. Unknown names map to CodeError.
func ParseCode(s string) Code {
	for c, name := range codeNames {
		if name == s {
			return c
		}
	}
	return CodeError
}
