package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSongQueries(t *testing.T) {
	content := `1. Daft Punk - Harder Better Faster Stronger
2. Justice - D.A.N.C.E.
- Moderat - A New Error
* Caribou - Odessa
Some random commentary line
Breathe by Telepopmusik

10. The Chemical Brothers - Star Guitar`

	queries := parseSongQueries(content)
	assert.Equal(t, []string{
		"Daft Punk - Harder Better Faster Stronger",
		"Justice - D.A.N.C.E.",
		"Moderat - A New Error",
		"Caribou - Odessa",
		"Telepopmusik - Breathe",
		"The Chemical Brothers - Star Guitar",
	}, queries)
}

func TestParseSongQueriesRejectsMalformedLines(t *testing.T) {
	content := " - \nJust Artist -\n- Just Song\n\n"
	assert.Empty(t, parseSongQueries(content))
}

func TestStripNumberPrefix(t *testing.T) {
	assert.Equal(t, "Artist - Song", stripNumberPrefix("12. Artist - Song"))
	assert.Equal(t, "Artist - Song", stripNumberPrefix("Artist - Song"))
	assert.Equal(t, "3.Artist", stripNumberPrefix("3.Artist"))
	assert.Equal(t, "", stripNumberPrefix(""))
}
