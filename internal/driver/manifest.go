package driver

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// manifestEncMode encodes snapshots canonically, so equal snapshots give
// equal bytes.
var manifestEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("driver: failed to create CBOR enc mode: %v", err))
	}
	manifestEncMode = em
}

// MarshalManifest encodes snap as canonical CBOR. The session id is left
// out so that manifests of identical crates are byte-identical.
func MarshalManifest(snap *Snapshot) ([]byte, error) {
	m := *snap
	m.Session = ""
	return manifestEncMode.Marshal(&m)
}

// UnmarshalManifest decodes a manifest written by MarshalManifest.
func UnmarshalManifest(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("driver: unmarshal manifest: %w", err)
	}
	return &snap, nil
}

// WriteManifest writes the canonical manifest of snap to w.
func WriteManifest(w io.Writer, snap *Snapshot) error {
	data, err := MarshalManifest(snap)
	if err != nil {
		return fmt.Errorf("driver: marshal manifest: %w", err)
	}
	_, err = w.Write(data)
	return err
}
