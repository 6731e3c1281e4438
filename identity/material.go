package identity

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"regexp"
	"strings"
)

// Material is a complete TLS identity: a PKCS8 private key and a
// self-signed certificate, both PEM armored.
type Material struct {
	PrivateKeyPEM  []byte
	CertificatePEM []byte
}

// Fingerprint renders the SHA-256 digest of the certificate's DER bytes as
// colon-separated uppercase hex pairs. It is stable for a given
// certificate and changes only when the material is regenerated.
func (m Material) Fingerprint() (string, error) {
	block, _ := pem.Decode(m.CertificatePEM)
	if block == nil {
		return "", fmt.Errorf("Fingerprint: certificate material holds no PEM block")
	}
	digest := sha256.Sum256(block.Bytes)
	return toHexString(digest[:]), nil
}

// TLSCertificate parses the material into a tls.Certificate for serving.
func (m Material) TLSCertificate() (tls.Certificate, error) {
	cert, err := tls.X509KeyPair(m.CertificatePEM, m.PrivateKeyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("TLSCertificate: material does not parse as a key pair: %w", err)
	}
	return cert, nil
}

func toHexString(bytes []byte) string {
	digestString := fmt.Sprintf("%x", bytes)
	if len(digestString)%2 == 1 {
		digestString = "0" + digestString
	}
	re := regexp.MustCompile("..")
	digestString = strings.TrimRight(re.ReplaceAllString(digestString, "$0:"), ":")
	return strings.ToUpper(digestString)
}

func certToPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func keyToPEM(pkcs8 []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
}
