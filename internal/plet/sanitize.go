package plet

import (
	"crypto/md5" //nolint:gosec // filename disambiguation only, matches existing cache layout
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLen is the default cap on a filename stem before hashing.
const MaxNameLen = 100

var nonAlphanumRuns = regexp.MustCompile(`[^A-Za-z0-9]+`)

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SafeName maps an arbitrary human-readable identifier to a
// filesystem-safe token: Unicode is folded to its closest ASCII form
// (diacritics stripped), remaining non-ASCII runes are dropped, every
// run of non-alphanumeric characters collapses to a single underscore,
// and leading/trailing underscores are trimmed. The function is pure
// and idempotent; cache lookups depend on that.
func SafeName(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	out := nonAlphanumRuns.ReplaceAllString(b.String(), "_")
	return strings.Trim(out, "_")
}

// LimitName caps name at maxLen bytes, backing up to the nearest rune
// boundary so multi-byte input never truncates to invalid UTF-8.
// Truncated names get an underscore plus the first 8 hex characters of
// the md5 of the original, untruncated name, so two long names sharing
// a prefix never collide after truncation.
func LimitName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	sum := md5.Sum([]byte(name)) //nolint:gosec
	return name[:cut] + "_" + hex.EncodeToString(sum[:])[:8]
}

// OutputName derives the deterministic output filename for a
// (dataset, region, window) combination. It is used both for writing
// and for the cache existence check.
func OutputName(dataset, region string, start, end time.Time) string {
	stem := fmt.Sprintf("Dataset_%s_Region_%s_START_%s_STOP_%s",
		SafeName(dataset),
		SafeName(region),
		start.Format(DateFormat),
		end.Format(DateFormat),
	)
	return LimitName(stem, MaxNameLen) + ".csv"
}
