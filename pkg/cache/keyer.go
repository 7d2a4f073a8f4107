package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey returns the key of a check result for the knowledge base
	// with the given hash.
	ResultKey(kbHash string, opts ResultKeyOpts) string
	// ArtifactKey returns the key of a rendered model.
	ArtifactKey(resultKey string, opts ArtifactKeyOpts) string
}

// ResultKeyOpts holds the check options that change a result.
type ResultKeyOpts struct {
	Semantic    bool   `json:"semantic"`
	Backjump    bool   `json:"backjump"`
	All         bool   `json:"all"`
	Blocking    string `json:"blocking"`
	KeepModels  int    `json:"keep_models"`
	MaxBranches int    `json:"max_branches"`
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
	Retired  bool   `json:"retired"`
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "result:<sha256>".
func (DefaultKeyer) ResultKey(kbHash string, opts ResultKeyOpts) string {
	return hashKey("result", kbHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(resultKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultKey, opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
