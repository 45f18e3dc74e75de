package repository

import "fmt"

// BuildSentimentPrompt asks a general-purpose LLM for a FinBERT-style
// probability triple.
func BuildSentimentPrompt(headline string) string {
	return fmt.Sprintf(`You are a financial sentiment classifier.
Classify the sentiment of the following financial news headline for investors.

Headline: %q

Respond with JSON only, no prose, in exactly this shape:
{"positive": <float>, "negative": <float>, "neutral": <float>}

Each value is a probability between 0 and 1 and the three values sum to 1.`, headline)
}
