package conversation

import (
	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"
)

// CountTokens returns the number of tokens the conversation occupies under the
// given model's encoding. An empty model falls back to cl100k_base, which is
// close enough for budget logging across the chat model family.
func CountTokens(messages Conversation, model string) (int, error) {
	codec, err := getCodec(model)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, msg := range messages {
		ids, _, err := codec.Encode(msg.Text)
		if err != nil {
			return 0, errors.Wrap(err, "could not encode message")
		}
		count += len(ids)
	}

	return count, nil
}

func getCodec(model string) (tokenizer.Codec, error) {
	if model != "" {
		c, err := tokenizer.ForModel(tokenizer.Model(model))
		if err == nil {
			return c, nil
		}
		// unknown models (local deployments, proxies) fall through to cl100k
	}
	c, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, errors.Wrap(err, "could not create tokenizer")
	}
	return c, nil
}
