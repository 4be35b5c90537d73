// Package chat mirrors a Twitch channel's IRC chat into the on-air board.
//
// It provides two entrypoints:
//   - StartMirror: connects to Twitch IRC for the configured channel and
//     feeds each message through the on-air sanitizer into the session store,
//     so simulcast viewers see one combined chat.
//   - StartAutoMirror: polls Twitch live status and runs the mirror only
//     while the channel is actually on the air, reconnecting on the next
//     broadcast automatically.
//
// The IRC client requires a bot username and a user OAuth token with
// chat:read scope; the Helix live-status poll uses an app access token.
package chat
