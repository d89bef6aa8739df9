package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	is := is.New(t)

	is.Equal(parseLevel("debug"), zerolog.DebugLevel)
	is.Equal(parseLevel("ERROR"), zerolog.ErrorLevel)
	is.Equal(parseLevel(""), zerolog.WarnLevel)
	is.Equal(parseLevel("loud"), zerolog.WarnLevel)
}

func TestInitWithWriter(t *testing.T) {
	is := is.New(t)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")

	log.Debug().Msg("hidden")
	is.Equal(buf.Len(), 0)

	log.Info().Int("book_id", 3).Msg("book added")

	var entry map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &entry))
	is.Equal(entry["message"], "book added")
	is.Equal(entry["service"], "books")
	is.Equal(entry["book_id"], float64(3))
}
