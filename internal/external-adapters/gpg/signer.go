// Package gpg signs rendered reports so the artifact store can verify
// their origin.
package gpg

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

// Signer produces clearsigned copies of report bytes using ProtonMail's
// go-crypto, a maintained fork of golang.org/x/crypto/openpgp.
// This is in external-adapters to isolate the external dependency.
type Signer struct {
	entity *openpgp.Entity
}

// NewSignerFromFile loads an armored private key from path. The key must
// not be passphrase-protected; CI signing keys are expected to be
// short-lived and injected by the runner.
func NewSignerFromFile(path string) (*Signer, error) {
	//nolint:gosec // G304: path is the operator-supplied signing key location
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key %s: %w", path, err)
	}

	ring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	for _, entity := range ring {
		if entity.PrivateKey == nil {
			continue
		}
		if entity.PrivateKey.Encrypted {
			return nil, fmt.Errorf("signing key %s is passphrase-protected", path)
		}
		return &Signer{entity: entity}, nil
	}
	return nil, fmt.Errorf("no usable private key in %s", path)
}

// Sign returns a clearsigned document wrapping data.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, s.entity.PrivateKey, nil)
	if err != nil {
		return nil, fmt.Errorf("start signature: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("sign report: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish signature: %w", err)
	}
	return buf.Bytes(), nil
}
