package domain

import "github.com/rotisserie/eris"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = eris.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = eris.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = eris.New("cache service unavailable")

	// ErrSessionNotFound is returned when a chat session does not exist or has expired
	ErrSessionNotFound = eris.New("chat session not found")

	// ErrNLUUnavailable is returned by a delegate that cannot serve the turn
	ErrNLUUnavailable = eris.New("nlu delegate unavailable")

	// ErrMalformedEnvelope is returned when the delegate output does not match the contract
	ErrMalformedEnvelope = eris.New("malformed nlu envelope")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = eris.New("rate limit exceeded")

	// ErrKeywordMissing is returned when a search is requested without a usable keyword
	ErrKeywordMissing = eris.New("search keyword missing")

	// ErrInvalidWeights is returned when scoring weights are negative or do not sum to 1
	ErrInvalidWeights = eris.New("invalid scoring weights")

	// ErrSourceFailure is returned when a marketplace source cannot be queried
	ErrSourceFailure = eris.New("marketplace source failed")
)
