package client

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is used for command text when no other charset was set.
const DefaultCharset = "UTF-8"

// Charset converts command text to payload bytes and back.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// Replacement stands in for characters a charset cannot encode.
const Replacement = '?'

// UTF8 is the default Charset.
var UTF8 = Charset{name: DefaultCharset, enc: unicode.UTF8}

// LookupCharset resolves an IANA charset name such as "UTF-8", "ISO-8859-1"
// or "windows-1252". An empty name yields UTF8.
func LookupCharset(name string) (Charset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return Charset{}, invalidArgument("charset", fmt.Errorf("Unknown charset %q: %w", name, err))
	}

	if enc == nil {
		return Charset{}, invalidArgument("charset", fmt.Errorf("Unsupported charset %q", name))
	}

	return Charset{name: canonicalName(enc, name), enc: enc}, nil
}

// canonicalName prefers the MIME name ("ISO-8859-1"), then the IANA registry
// name ("ISO_8859-1:1987"), then whatever the caller asked for.
func canonicalName(enc encoding.Encoding, name string) string {
	if mime, err := ianaindex.MIME.Name(enc); err == nil && mime != "" {
		return mime
	}

	if iana, err := ianaindex.IANA.Name(enc); err == nil && iana != "" {
		return iana
	}

	return name
}

func (c Charset) Name() string {
	if c.enc == nil {
		return UTF8.name
	}

	return c.name
}

// Encode converts text to bytes. Characters the charset cannot represent are
// written as '?'.
func (c Charset) Encode(text string) ([]byte, error) {
	enc := c.encoding()

	if b, err := enc.NewEncoder().Bytes([]byte(text)); err == nil {
		return b, nil
	}

	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, err := enc.NewEncoder().Bytes([]byte(string(r)))
		if err != nil {
			out = append(out, Replacement)
			continue
		}

		out = append(out, b...)
	}

	return out, nil
}

// Decode converts a reply payload to text.
func (c Charset) Decode(payload []byte) (string, error) {
	b, err := c.encoding().NewDecoder().Bytes(payload)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (c Charset) encoding() encoding.Encoding {
	if c.enc == nil {
		return UTF8.enc
	}

	return c.enc
}
