package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	// EncodingJSON stores the user record as a JSON object.
	EncodingJSON = "json"
	// EncodingCBOR stores the user record as base64 deterministic CBOR.
	EncodingCBOR = "cbor"

	cborPrefix = "cbor1:"
)

// ErrSerialization is returned when a user record cannot be encoded or decoded.
var ErrSerialization = errors.New("session serialization failed")

// Codec converts a [User] to and from its stored string form.
//
// Decoding accepts every supported format regardless of the codec used for
// writing, so switching Encoding does not strand sessions written earlier.
type Codec interface {
	Name() string
	Encode(u *User) (string, error)
	Decode(value string) (*User, error)
}

var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("session: CBOR encoder initialization failed: " + err.Error())
	}
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", EncodingJSON:
		return jsonCodec{}, nil
	case EncodingCBOR:
		return cborCodec{}, nil
	default:
		return nil, fmt.Errorf("session: unsupported encoding %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return EncodingJSON }

func (jsonCodec) Encode(u *User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w: nil user", ErrSerialization)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

func (jsonCodec) Decode(value string) (*User, error) {
	return decodeUser(value)
}

type cborCodec struct{}

func (cborCodec) Name() string { return EncodingCBOR }

func (cborCodec) Encode(u *User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w: nil user", ErrSerialization)
	}
	data, err := cborEnc.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return cborPrefix + base64.RawStdEncoding.EncodeToString(data), nil
}

func (cborCodec) Decode(value string) (*User, error) {
	return decodeUser(value)
}

func decodeUser(value string) (*User, error) {
	var u *User

	if rest, ok := strings.CutPrefix(value, cborPrefix); ok {
		data, err := base64.RawStdEncoding.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if err := cbor.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	} else if err := json.Unmarshal([]byte(value), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if u == nil {
		return nil, fmt.Errorf("%w: empty user record", ErrSerialization)
	}
	return u, nil
}
