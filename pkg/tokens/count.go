package tokens

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"

	"github.com/go-go-golems/csvassist/pkg/session"
)

// Counter estimates how many tokens a transcript occupies.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter picks the codec matching model. If the codec cannot be
// loaded the counter falls back to a rough character-based estimate.
func NewCounter(model string) *Counter {
	encoding, err := defaultEncoding(model)
	if err != nil {
		log.Debug().Err(err).Str("model", model).Msg("no encoding for model")
		return &Counter{}
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		log.Debug().Err(err).Str("encoding", string(encoding)).Msg("could not load codec")
		return &Counter{}
	}
	return &Counter{codec: codec}
}

// Count returns the token count of text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.codec != nil {
		ids, _, err := c.codec.Encode(text)
		if err == nil {
			return len(ids)
		}
		log.Debug().Err(err).Msg("error encoding text, estimating")
	}
	return estimate(text)
}

// CountTurns sums the token counts of all turn contents.
func (c *Counter) CountTurns(turns []session.Turn) int {
	total := 0
	for _, t := range turns {
		total += c.Count(t.Content)
	}
	return total
}

func estimate(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n == 0 {
		return 1
	}
	return n
}

func defaultEncoding(model string) (tokenizer.Encoding, error) {
	model = strings.TrimSpace(model)
	switch {
	case model == "":
		return "", errors.New("empty model name")
	case strings.HasPrefix(model, "gpt-4o"):
		return tokenizer.O200kBase, nil
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5-turbo"),
		strings.HasPrefix(model, "text-embedding-ada-002"):
		return tokenizer.Cl100kBase, nil
	case strings.HasPrefix(model, "text-davinci-002"),
		strings.HasPrefix(model, "text-davinci-003"):
		return tokenizer.P50kBase, nil
	default:
		return tokenizer.R50kBase, nil
	}
}
