package common

const (
	RedisStreamHeadlineScore = "headline.score"

	RedisStreamGroup    = "scoring-group"
	RedisStreamConsumer = "scoring-consumer"

	RedisKeyResultCache = "signal:result:%s"

	NotAvailableSymbol = "N/A"
)
