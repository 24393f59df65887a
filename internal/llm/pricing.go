package llm

import (
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
)

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Cost returns the USD cost of a call.
func (p Price) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*p.Input + float64(outputTokens)/1_000_000*p.Output
}

var sonnetPrice = Price{Input: 3, Output: 15}

// prices is keyed by model family so Bedrock profile names resolve too.
var prices = []struct {
	family string
	price  Price
}{
	{"opus-4-5", Price{Input: 5, Output: 25}},
	{"opus-4-1", Price{Input: 15, Output: 75}},
	{"opus", Price{Input: 15, Output: 75}},
	{"haiku-4-5", Price{Input: 1, Output: 5}},
	{"3-5-haiku", Price{Input: 0.8, Output: 4}},
	{"haiku", Price{Input: 1, Output: 5}},
	{"sonnet", sonnetPrice},
}

// PriceFor returns the approximate price of model, falling back to Sonnet.
func PriceFor(model anthropic.Model) Price {
	m := string(model)
	for _, p := range prices {
		if strings.Contains(m, p.family) {
			return p.price
		}
	}
	return sonnetPrice
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
