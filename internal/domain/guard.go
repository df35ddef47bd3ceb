package domain

// GuardResult is the verdict of a request guard (rate limiter, circuit breaker).
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
