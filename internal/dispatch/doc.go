// Package dispatch decides where a composition runs and recovers from worker failures.
//
// A Dispatcher runs each composition either Inline, on the calling goroutine,
// or Offloaded, on a dedicated worker spawned for that one call. Offloading is
// chosen only when a Spawner is configured, an offscreen surface is available,
// and more than one image is being composed.
//
// # Worker Protocol
//
// Workers speak newline-delimited JSON over a byte stream. No live images or
// shared memory cross the boundary:
//
//	request:  {"images":[{"name":"a.png","data":"<base64>"}], "settings":{...}}
//	response: {"success":true,"imageData":"<base64>","mimeType":"image/png"}
//	          {"success":false,"error":"..."}
//
// ServeWorker implements the worker side. ProcessSpawner runs it in a child
// process (the binary's "worker" subcommand); LocalSpawner runs it on a
// goroutine connected through in-memory pipes.
//
// # Fallback
//
// If the Offloaded attempt fails for any reason (spawn failure, transport
// error, worker-reported error, malformed response, or timeout) the worker is
// terminated and the same composition is run Inline exactly once. Errors from
// the fallback are returned to the caller as-is; there is no further retry.
//
// # State
//
// A Dispatcher holds only configuration. Each call creates and tears down its
// own worker, so concurrent calls never share mutable state.
package dispatch
