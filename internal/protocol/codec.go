package protocol

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

// DefaultCodec is the text encoding used when none is configured.
const DefaultCodec = "UTF-8"

// Codec converts between Go strings and the bytes exchanged with the Tool.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// LookupCodec resolves an IANA or WHATWG encoding name such as "UTF-8" or
// "Shift_JIS".
func LookupCodec(name string) (Codec, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return Codec{}, gserrors.NewInvalidArgumentError(fmt.Sprintf("unknown text encoding %q", name), err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	return Codec{name: canonical, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (c Codec) Name() string {
	return c.name
}

// EncodeString converts s to wire bytes.
func (c Codec) EncodeString(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	b, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, gserrors.NewInvalidArgumentError(fmt.Sprintf("text not representable in %s", c.name), err)
	}
	return b, nil
}

// DecodeBytes converts wire bytes to a Go string.
func (c Codec) DecodeBytes(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", gserrors.NewMalformedResponseError(fmt.Sprintf("response is not valid %s", c.name), err)
	}
	return string(out), nil
}
