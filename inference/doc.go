// Package inference is a stateless client for the Ollama-compatible
// inference endpoint a worker machine serves. Chat, generate, embed and
// model listing are plain request/response wrappers with no lifecycle of
// their own.
//
// Clients are constructed and owned explicitly. For callers that want a
// process-wide client, the package offers a synchronized holder
// (Configure/Default) instead of implicit global state; reconfiguring
// closes the previous client's idle connections before the swap.
package inference
