package normalizers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestHarmonize(t *testing.T) {
	t.Run("canonicalizes the versus separator", func(t *testing.T) {
		assert.Equal(t, "smith v. jones", Harmonize("Smith vs Jones"))
		assert.Equal(t, "smith v. jones", Harmonize("Smith vs. Jones"))
		assert.Equal(t, "smith v. jones", Harmonize("Smith V Jones"))
		assert.Equal(t, "smith v. jones", Harmonize("smith  v.   jones"))
	})

	t.Run("strips trailing et al from each party", func(t *testing.T) {
		assert.Equal(t, "smith v. jones", Harmonize("Smith, et al. v. Jones"))
		assert.Equal(t, "smith v. jones", Harmonize("Smith v. Jones et al"))
	})

	t.Run("unifies government party renderings", func(t *testing.T) {
		assert.Equal(t, "united states v. doe", Harmonize("United States of America v. Doe"))
		assert.Equal(t, "united states v. doe", Harmonize("USA v. Doe"))
		assert.Equal(t, "doe v. united states", Harmonize("Doe v. U.S."))
	})

	t.Run("caption without separator passes through folded", func(t *testing.T) {
		assert.Equal(t, "in re grand jury proceedings", Harmonize("In Re Grand Jury Proceedings"))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Harmonize("Smith, et al. vs. U.S.A.")
		assert.Equal(t, once, Harmonize(once))
	})
}

func TestCaptionForComparison(t *testing.T) {
	t.Run("truncates each party independently", func(t *testing.T) {
		long := strings.Repeat("a", 40)
		got := CaptionForComparison(long+" v. Jones", 30)
		assert.Equal(t, strings.Repeat("a", 30)+" v. jones", got)
	})

	t.Run("short parties are untouched", func(t *testing.T) {
		assert.Equal(t, "smith v. jones", CaptionForComparison("Smith v. Jones", 30))
	})

	t.Run("no separator returns harmonized caption whole", func(t *testing.T) {
		long := strings.Repeat("b", 50)
		assert.Equal(t, long, CaptionForComparison(long, 30))
	})

	t.Run("multibyte parties truncate on rune boundaries", func(t *testing.T) {
		long := strings.Repeat("é", 40)
		got := CaptionForComparison(long+" v. Muñoz", 30)
		assert.Equal(t, strings.Repeat("é", 30)+" v. muñoz", got)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("consolidated captions are not truncated", func(t *testing.T) {
		got := CaptionForComparison("Smith v. Jones v. Brown", 3)
		assert.Equal(t, "smith v. jones v. brown", got)
	})
}

func TestNormalizeDocketNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"standard civil number", "1:17-cv-00101", "1700101"},
		{"judge initials suffix", "1:17-cv-00101-ABC-DEF", "1700101"},
		{"no office prefix", "17-cv-101", "1700101"},
		{"four digit year", "1:2017-cv-101", "1700101"},
		{"zero pads short serials", "2:99-cv-1", "9900001"},
		{"not a docket number", "garbage", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDocketNumber(tt.input))
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Run("built-ins are registered", func(t *testing.T) {
		for _, name := range []string{"lowercase", "trim", "collapse_whitespace", "remove_punctuation", "harmonize", "ndocket"} {
			_, ok := Get(name)
			assert.True(t, ok, "normalizer %q should be registered", name)
		}
	})

	t.Run("unknown normalizer passes value through", func(t *testing.T) {
		assert.Equal(t, "Hello", Apply("Hello", "nope"))
	})

	t.Run("chain applies in order", func(t *testing.T) {
		got := ApplyChain("  Hello,   World!  ", "trim", "collapse_whitespace", "remove_punctuation", "lowercase")
		assert.Equal(t, "hello world", got)
	})
}
