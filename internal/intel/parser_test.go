package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	p := NewParser(nil)

	t.Run("well-formed lines keep timestamp and author verbatim", func(t *testing.T) {
		rec := p.Parse("[ 2026.04.14 17:01:23 ] Jardy > VFK-IV nv")
		require.NotNil(t, rec)
		assert.Equal(t, "2026.04.14 17:01:23", rec.Timestamp)
		assert.Equal(t, "Jardy", rec.Author)
		assert.Equal(t, "VFK-IV nv", rec.RawMessage)
	})

	t.Run("non-envelope lines yield nil", func(t *testing.T) {
		for _, line := range []string{
			"",
			"Esto no es una linea de log valida",
			"[broken] Jardy > hi",
			"Jardy > no brackets here",
			"  Channel ID:      Local",
		} {
			assert.Nil(t, p.Parse(line), "line %q should be rejected", line)
		}
	})

	t.Run("leading and trailing whitespace is tolerated", func(t *testing.T) {
		rec := p.Parse("   [ 2026.01.01 00:00:00 ] Pilot > Jita clr   ")
		require.NotNil(t, rec)
		assert.Equal(t, "Pilot", rec.Author)
	})
}

func TestParseStatus(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name string
		msg  string
		want Status
	}{
		{"bare sighting defaults to hostile", "1DQ1-A 5 lokis", StatusHostile},
		{"clr token", "Jita clr", StatusClear},
		{"clear token", "Jita clear", StatusClear},
		{"nv token", "VFK-IV nv", StatusNoVisual},
		{"no vis phrase", "VFK-IV no vis yet", StatusNoVisual},
		{"clr wins over nv", "Jita clr nv", StatusClear},
		{"substring does not count as whole word", "Jita clrx", StatusHostile},
		{"nv embedded in word ignored", "Jita invasion", StatusHostile},
		{"case-insensitive markers", "Jita CLR", StatusClear},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := p.Parse("[ 2026.02.26 22:15:00 ] Scout > " + tc.msg)
			require.NotNil(t, rec)
			assert.Equal(t, tc.want, rec.Status)
		})
	}
}

func TestParseScanLink(t *testing.T) {
	p := NewParser(nil)

	rec := p.Parse("[ 2026.02.26 22:17:30 ] Spia > 1DQ1-A 50 lokis https://dscan.info/v/1234abcd")
	require.NotNil(t, rec)
	assert.Equal(t, "https://dscan.info/v/1234abcd", rec.ScanLink)

	rec = p.Parse("[ 2026.02.26 22:17:30 ] Spia > Jita spike http://evepraisal.com/a/xyz more text")
	require.NotNil(t, rec)
	assert.Equal(t, "http://evepraisal.com/a/xyz", rec.ScanLink)

	rec = p.Parse("[ 2026.02.26 22:17:30 ] Spia > check https://example.com/not-a-scan")
	require.NotNil(t, rec)
	assert.Empty(t, rec.ScanLink, "unknown hosts are not scan links")
}

func TestParseLocationDictionaryMode(t *testing.T) {
	p := NewParser([]string{"vfk-iv", "jita", "1dq1-a"})

	t.Run("scenario from a live log", func(t *testing.T) {
		rec := p.Parse("[ 2026.02.26 22:15:00 ] Capitán Obvio > VFK-IV nv")
		require.NotNil(t, rec)
		assert.Equal(t, "Capitán Obvio", rec.Author)
		assert.Equal(t, "VFK-IV", rec.System)
		assert.Equal(t, StatusNoVisual, rec.Status)
	})

	t.Run("lower case token is title cased", func(t *testing.T) {
		rec := p.Parse("[ 2026.02.26 22:15:00 ] Scout > vfk-iv clr")
		require.NotNil(t, rec)
		assert.Equal(t, "Vfk-Iv", rec.System)
	})

	t.Run("unknown tokens resolve to no location", func(t *testing.T) {
		rec := p.Parse("[ 2026.02.26 22:18:00 ] Constructor > Hola chicos como estan?")
		require.NotNil(t, rec)
		assert.Empty(t, rec.System)
	})
}

func TestParseLocationHeuristicMode(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"first word is the system", "VFK-IV nv", "VFK-IV"},
		{"stop words are skipped", "clr spike 1DQ1-A", "1DQ1-A"},
		{"punctuation is stripped", "*J5A-IX* clear", "J5A-IX"},
		{"links are skipped", "https://dscan.info/v/abc VFK-IV", "VFK-IV"},
		{"chat may misfire as a location", "Hola chicos", "Hola"},
		{"all stop words yields nothing", "local clr no vis", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := p.Parse("[ 2026.02.26 22:15:00 ] Scout > " + tc.msg)
			require.NotNil(t, rec)
			assert.Equal(t, tc.want, rec.System)
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewParser([]string{"jita"})
	const line = "[ 2026.02.26 22:16:10 ] Explorador > Jita clr"

	first := p.Parse(line)
	second := p.Parse(line)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}
