package plet

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"BE Flanders Marine Institute (VLIZ) - LW_VLIZ_zoo", "BE_Flanders_Marine_Institute_VLIZ_LW_VLIZ_zoo"},
		{"über straße", "uber_strae"},
		{"  leading and trailing  ", "leading_and_trailing"},
		{"___", ""},
		{"plain", "plain"},
		{"a--b..c", "a_b_c"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SafeName(tc.in))
		})
	}
}

func TestSafeNameIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"BE Flanders Marine Institute (VLIZ) - LW_VLIZ_zoo",
		"über straße",
		"Dataset_Already_Safe",
		"teilñ çedilla",
	}
	for _, in := range inputs {
		once := SafeName(in)
		require.Equal(t, once, SafeName(once), "sanitize must be idempotent for %q", in)
	}
}

func TestLimitNameShortNamesUntouched(t *testing.T) {
	t.Parallel()

	name := strings.Repeat("a", 100)
	require.Equal(t, name, LimitName(name, 100))
}

func TestLimitNameTruncatesWithHash(t *testing.T) {
	t.Parallel()

	name := strings.Repeat("a", 150)
	limited := LimitName(name, 100)
	require.LessOrEqual(t, len(limited), 100+1+8)
	require.True(t, strings.HasPrefix(limited, strings.Repeat("a", 100)+"_"))
}

func TestLimitNameKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// A cut landing mid-rune must back up to the boundary instead of
	// splitting the multi-byte sequence.
	name := strings.Repeat("ü", 60) // 120 bytes
	limited := LimitName(name, 101)
	require.True(t, utf8.ValidString(limited))
	require.True(t, strings.HasPrefix(limited, strings.Repeat("ü", 50)+"_"))
	require.Equal(t, limited, LimitName(name, 101))
}

func TestLimitNameSharedPrefixNoCollision(t *testing.T) {
	t.Parallel()

	prefix := strings.Repeat("x", 100)
	a := LimitName(prefix+"alpha", 100)
	b := LimitName(prefix+"beta", 100)
	require.NotEqual(t, a, b, "names sharing the first 100 chars must not collide")
	require.Equal(t, a, LimitName(prefix+"alpha", 100), "limiting must be deterministic")
}

func TestOutputName(t *testing.T) {
	t.Parallel()

	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := OutputName("My Dataset (EU)", "SNS", start, end)
	require.Equal(t, "Dataset_My_Dataset_EU_Region_SNS_START_2015-01-01_STOP_2025-01-01.csv", got)

	// Deterministic across calls; the name doubles as the cache key.
	require.Equal(t, got, OutputName("My Dataset (EU)", "SNS", start, end))
}

func TestOutputNameLongDatasetBounded(t *testing.T) {
	t.Parallel()

	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	long := strings.Repeat("Very Long Dataset Name ", 20)
	got := OutputName(long, "NNS", start, end)
	require.True(t, strings.HasSuffix(got, ".csv"))
	require.LessOrEqual(t, len(got), 100+1+8+len(".csv"))
}
