// Package llm provides a chat-completions client for subtitle translation.
//
// OpenAI, Moonshot, and Baidu Qianfan all expose OpenAI-compatible chat
// endpoints, so a single client configured with the provider's base URL and
// model covers every supported translation backend.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive plain-text response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default), and
// honors Retry-After headers. Context cancellation aborts retries immediately.
package llm
