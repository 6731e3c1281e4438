package identity

import (
	"fmt"
	"math/big"
	"time"
)

// Minimal DER builders for the handful of ASN.1 shapes a self-signed
// certificate needs. Every builder produces the definite-length encoding;
// indefinite lengths never occur in DER.

const (
	tagInteger         = 0x02
	tagBitString       = 0x03
	tagOctetString     = 0x04
	tagNull            = 0x05
	tagOID             = 0x06
	tagUTF8String      = 0x0c
	tagUTCTime         = 0x17
	tagSequence        = 0x30
	tagSet             = 0x31
	tagContextBase     = 0x80
	contextConstructed = 0xa0
)

// derTag prepends tag and length octets to content.
func derTag(tag byte, content []byte) []byte {
	out := make([]byte, 0, 4+len(content))
	out = append(out, tag)
	out = append(out, derLength(len(content))...)
	return append(out, content...)
}

// derLength encodes a content length: short form below 128, long form
// with a leading count octet otherwise.
func derLength(n int) []byte {
	if n < 0 {
		panic(fmt.Sprintf("derLength: negative length %d", n))
	}
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var body []byte
	for v := n; v > 0; v >>= 8 {
		body = append([]byte{byte(v)}, body...)
	}
	return append([]byte{byte(0x80 | len(body))}, body...)
}

func derSequence(elems ...[]byte) []byte {
	return derTag(tagSequence, concat(elems))
}

func derSet(elems ...[]byte) []byte {
	return derTag(tagSet, concat(elems))
}

// derInteger encodes a non-negative INTEGER in two's complement, adding a
// leading zero octet when the top bit of the first content octet is set.
func derInteger(v *big.Int) []byte {
	if v.Sign() < 0 {
		panic("derInteger: negative values are never encoded here")
	}
	b := v.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	if b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	return derTag(tagInteger, b)
}

func derIntegerInt(v int64) []byte {
	return derInteger(big.NewInt(v))
}

// derOID encodes an OBJECT IDENTIFIER. The first two arcs collapse into a
// single octet (40*arc1+arc2); remaining arcs use base-128 with
// continuation bits.
func derOID(arcs ...int) []byte {
	if len(arcs) < 2 {
		panic("derOID: an OID has at least two arcs")
	}
	body := []byte{byte(40*arcs[0] + arcs[1])}
	for _, arc := range arcs[2:] {
		body = append(body, base128(arc)...)
	}
	return derTag(tagOID, body)
}

func base128(v int) []byte {
	if v < 0x80 {
		return []byte{byte(v)}
	}
	var out []byte
	for ; v > 0; v >>= 7 {
		out = append([]byte{byte(v&0x7f) | 0x80}, out...)
	}
	out[len(out)-1] &= 0x7f
	return out
}

// derBitString wraps bytes as a BIT STRING with zero unused bits.
func derBitString(b []byte) []byte {
	content := make([]byte, 0, len(b)+1)
	content = append(content, 0)
	return derTag(tagBitString, append(content, b...))
}

func derOctetString(b []byte) []byte {
	return derTag(tagOctetString, b)
}

func derNull() []byte {
	return []byte{tagNull, 0x00}
}

func derUTF8String(s string) []byte {
	return derTag(tagUTF8String, []byte(s))
}

// derUTCTime encodes a timestamp as YYMMDDHHMMSSZ in UTC.
func derUTCTime(t time.Time) []byte {
	return derTag(tagUTCTime, []byte(t.UTC().Format("060102150405Z")))
}

// derContextExplicit wraps inner in a constructed context-specific tag,
// e.g. the [0] version and [3] extensions fields of a TBSCertificate.
func derContextExplicit(tag byte, inner []byte) []byte {
	return derTag(contextConstructed|tag, inner)
}

// derContextPrimitive emits a primitive context-specific value, used for
// the dNSName and iPAddress choices inside a SubjectAltName.
func derContextPrimitive(tag byte, content []byte) []byte {
	return derTag(tagContextBase|tag, content)
}

func concat(elems [][]byte) []byte {
	size := 0
	for _, e := range elems {
		size += len(e)
	}
	out := make([]byte, 0, size)
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}
