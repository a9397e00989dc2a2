// Package summarizer turns an assembled repository digest into a structured
// summary using an OpenAI-compatible chat completion API.
//
// The default endpoint is Nebius Token Factory, but any provider that speaks
// the OpenAI chat protocol works through llm.base_url. Requests are throttled
// with a token bucket and retried on rate limits, 5xx responses and network
// errors.
package summarizer
