package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// Metadata describes an uploaded document without retaining its bytes.
type Metadata struct {
	Filename    string `json:"filename"`
	Format      Format `json:"format"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Hash        string `json:"hash"`      // SHA256 hex digest
	Timestamp   string `json:"timestamp"` // RFC3339
}

// Metadata summarizes the document for logging and blob naming.
func (d *Document) Metadata() *Metadata {
	return &Metadata{
		Filename:    filepath.Base(d.Filename),
		Format:      d.Format,
		ContentType: d.Format.ContentType(),
		Size:        len(d.Data),
		Hash:        computeHash(d.Data),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// ObjectName returns a blob name under prefix named by content hash, e.g.
// "<prefix>/<sha256>.pdf".
func (m *Metadata) ObjectName(prefix string) string {
	name := m.Hash + "." + string(m.Format)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func computeHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
