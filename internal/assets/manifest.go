package assets

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"time"

	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
	"github.com/wolfeidau/webbuild/internal/chunks"
)

// Manifest describes one build: the files written and the chunk groups
// their modules were classified into.
type Manifest struct {
	BuildID string           `json:"buildId"`
	Mode    Mode             `json:"mode"`
	BuiltAt time.Time        `json:"builtAt"`
	Defines []string         `json:"defines"`
	Files   []FileDigest     `json:"files"`
	Chunks  *chunks.Manifest `json:"chunks"`
}

// FileDigest records an output file relative to the output directory.
type FileDigest struct {
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
	Digest string `json:"digest"`
}

// File returns the digest entry for path, if present.
func (m *Manifest) File(path string) (FileDigest, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileDigest{}, false
}

// WriteFile stores the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadManifest loads a manifest written by WriteFile.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Digest returns the Base58-encoded CRC64-NVME checksum of data.
func Digest(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return base58.Encode(binary.BigEndian.AppendUint64(nil, h.Sum64()))
}
