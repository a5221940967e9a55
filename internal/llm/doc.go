// Package llm talks to language model providers for the chat interpreter,
// receipt analysis and health advice. It supports OpenAI, Anthropic and
// Gemini, with retry logic, rate limiting, and response caching.
package llm
