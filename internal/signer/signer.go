package signer

// Signer signs channel metadata
type Signer interface {
	// SignDetached creates an armored detached signature (repodata.json.asc)
	SignDetached(data []byte) ([]byte, error)

	// PublicKey returns the armored public key clients verify against
	PublicKey() ([]byte, error)
}
