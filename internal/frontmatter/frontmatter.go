// Package frontmatter reads the YAML metadata block at the top of Markdown
// content files. SiteBuilder only ever reads page metadata; rewriting
// content files is out of scope, so there is no serialization side.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Page is the metadata a content file can declare ahead of its body.
// Unknown keys collect in Params and flow into page templates untouched.
type Page struct {
	Title  string         `yaml:"title"`
	Slug   string         `yaml:"slug"`
	Draft  bool           `yaml:"draft"`
	Params map[string]any `yaml:",inline"`
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Parse splits and decodes the frontmatter of a content file. The returned
// body is the input without the metadata block; files without a block
// return a zero Page and the full input.
func Parse(content []byte) (Page, []byte, error) {
	meta, body, had, err := Split(content)
	if err != nil {
		return Page{}, nil, err
	}
	if !had {
		return Page{}, body, nil
	}
	var page Page
	if err := yaml.Unmarshal(meta, &page); err != nil {
		return Page{}, nil, err
	}
	return page, body, nil
}

// Split separates the `---` delimited YAML block from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. Both \n and \r\n delimited files are handled.
func Split(content []byte) (meta []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
