// Package signature computes the deterministic digests that drive
// analyzer-level caching: content hashes, pattern-set hashes, and
// per-analyzer change-set signatures.
package signature

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/presage-dev/presage/internal/pathmatch"
	"github.com/presage-dev/presage/pkg/models"
)

const sep = "\x00"

// Hash returns the BLAKE3 digest of data as a fixed-length hex string.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString hashes the UTF-8 bytes of s; HashString(s) == Hash([]byte(s)).
func HashString(s string) string {
	return Hash([]byte(s))
}

// HashPatterns digests an include/exclude pattern pair. Each list is sorted
// independently before hashing, so the digest is invariant under
// permutation within either list. Inputs are not mutated.
func HashPatterns(include, exclude []string) string {
	inc := append([]string(nil), include...)
	exc := append([]string(nil), exclude...)
	sort.Strings(inc)
	sort.Strings(exc)

	var b strings.Builder
	b.WriteString("include:")
	b.WriteString(strings.Join(inc, sep))
	b.WriteString(sep + "exclude:")
	b.WriteString(strings.Join(exc, sep))
	return HashString(b.String())
}

// fileContentHash digests one file's new-side content. When at least one
// hunk carries a parsed range the reconstructed new-side content is hashed;
// otherwise (pure renames, malformed or absent hunks) the file's raw diff
// text stands in. Applied consistently, either side keeps the signature
// invariants; the reconstructed side is preferred because it ignores
// metadata-only differences such as index lines.
func fileContentHash(f *models.FileDiff) string {
	for i := range f.Hunks {
		if f.Hunks[i].RangeValid {
			return fmt.Sprintf("%016x", xxhash.Sum64String(f.NewSideContent()))
		}
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(f.Raw))
}

// ForAnalyzer computes the content signature of the change-set subset
// relevant to one analyzer. Files outside the rule set never influence the
// digest, and the digest is invariant under permutation of the change
// set's file order.
func ForAnalyzer(rules *pathmatch.RuleSet, cs *models.ChangeSet) (string, error) {
	if err := rules.Compile(); err != nil {
		return "", err
	}

	type pair struct{ path, hash string }
	pairs := make([]pair, 0, len(cs.Files))
	for i := range cs.Files {
		f := &cs.Files[i]
		if !rules.Relevant(f.Path) {
			continue
		}
		pairs = append(pairs, pair{path: f.Path, hash: fileContentHash(f)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].path < pairs[j].path })

	var b strings.Builder
	b.WriteString(HashPatterns(rules.Include, rules.Exclude))
	for _, p := range pairs {
		b.WriteString(sep)
		b.WriteString(p.path)
		b.WriteString(sep)
		b.WriteString(p.hash)
	}
	return HashString(b.String()), nil
}
