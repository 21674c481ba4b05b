// Package genmodule renders and parses the generated text module that carries
// a binary payload as a base64 string constant.
//
// The module format is the contract with downstream bundlers:
//
//	export default "<standard base64>";
//
// with nothing before or after it, not even a trailing newline.
package genmodule

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
)

const (
	prefix = `export default "`
	suffix = `";`
)

// Pattern matches a well-formed generated module.
var Pattern = regexp.MustCompile(`^export default "[A-Za-z0-9+/]*={0,2}";$`)

// Render produces the module text for payload.
// Output depends only on payload: identical bytes give identical text.
func Render(payload []byte) []byte {
	enc := base64.StdEncoding
	out := make([]byte, 0, len(prefix)+enc.EncodedLen(len(payload))+len(suffix))
	out = append(out, prefix...)
	out = enc.AppendEncode(out, payload)
	out = append(out, suffix...)
	return out
}

// ParseError describes a module that does not have the expected shape.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed module: %s: %v", e.Message, e.Err)
	}
	return "malformed module: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse validates content and returns the decoded payload.
func Parse(content []byte) ([]byte, error) {
	if !bytes.HasPrefix(content, []byte(prefix)) {
		return nil, &ParseError{Message: "missing export default prefix"}
	}
	if !bytes.HasSuffix(content, []byte(suffix)) || len(content) < len(prefix)+len(suffix) {
		return nil, &ParseError{Message: `missing closing ";`}
	}
	if !Pattern.Match(content) {
		return nil, &ParseError{Message: "payload is not a standard base64 string"}
	}

	encoded := content[len(prefix) : len(content)-len(suffix)]
	payload, err := base64.StdEncoding.AppendDecode(nil, encoded)
	if err != nil {
		return nil, &ParseError{Message: "decoding payload", Err: err}
	}
	return payload, nil
}
