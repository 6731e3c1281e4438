package identity

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerLengthShortForm(t *testing.T) {
	assert.Equal(t, []byte{0x00}, derLength(0))
	assert.Equal(t, []byte{0x05}, derLength(5))
	assert.Equal(t, []byte{0x7f}, derLength(127))
}

func TestDerLengthLongForm(t *testing.T) {
	assert.Equal(t, []byte{0x81, 0x80}, derLength(128))
	assert.Equal(t, []byte{0x81, 0xc8}, derLength(200))
	assert.Equal(t, []byte{0x82, 0x0f, 0xa0}, derLength(4000))
}

func TestDerIntegerPadsHighBit(t *testing.T) {
	assert.Equal(t, []byte{0x02, 0x01, 0x00}, derIntegerInt(0))
	assert.Equal(t, []byte{0x02, 0x01, 0x7f}, derIntegerInt(127))
	// 128 has the top bit set, so a zero octet keeps it non-negative
	assert.Equal(t, []byte{0x02, 0x02, 0x00, 0x80}, derIntegerInt(128))
	assert.Equal(t, []byte{0x02, 0x02, 0x01, 0x00}, derIntegerInt(256))
}

func TestDerIntegerBigValues(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 16)
	assert.Equal(t, []byte{0x02, 0x03, 0x01, 0x00, 0x00}, derInteger(v))
}

func TestDerOIDKnownArcs(t *testing.T) {
	assert.Equal(t,
		[]byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x0b},
		derOID(oidSHA256WithRSA...))
	assert.Equal(t,
		[]byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01},
		derOID(oidRSAEncryption...))
	assert.Equal(t, []byte{0x06, 0x03, 0x55, 0x1d, 0x11}, derOID(oidSubjectAltName...))
	assert.Equal(t, []byte{0x06, 0x03, 0x55, 0x04, 0x03}, derOID(oidCommonName...))
}

func TestDerBitStringHasZeroUnusedBits(t *testing.T) {
	assert.Equal(t, []byte{0x03, 0x02, 0x00, 0xff}, derBitString([]byte{0xff}))
}

func TestDerUTCTimeLayout(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, append([]byte{0x17, 0x0d}, []byte("260102030405Z")...), derUTCTime(ts))
}

func TestDerSequenceNesting(t *testing.T) {
	inner := derIntegerInt(1)
	got := derSequence(inner, derNull())
	assert.Equal(t, []byte{0x30, 0x05, 0x02, 0x01, 0x01, 0x05, 0x00}, got)
}

func TestDerContextTags(t *testing.T) {
	assert.Equal(t, []byte{0xa0, 0x03, 0x02, 0x01, 0x02}, derContextExplicit(0, derIntegerInt(2)))
	assert.Equal(t, []byte{0x82, 0x09}, derContextPrimitive(2, []byte("localhost"))[:2])
}
