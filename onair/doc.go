// Package onair implements the live-broadcast chat and Q&A board.
//
// It owns all state for the current broadcast session: chat messages,
// questions with their moderation lifecycle (pending -> answering ->
// answered), and the registry of push-channel connections. Everything is held
// in memory behind a single mutex; a session lasts until Reset or process
// exit. Two delivery paths read from the same Store:
//   - polling: GET /onair/getdata/{cursor} returns items newer than the
//     caller's cursor (see Since and the cursor helpers), and
//   - push: a WebSocket Hub fans new items and state changes out to every
//     connected client immediately.
//
// Submitted text is sanitized exactly once, at submission time (see
// Sanitize); stored content is final render-safe markup.
package onair
