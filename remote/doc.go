// Package remote implements [goSession.RemoteSessionService] over HTTP.
//
// [Client.Logout] posts the refresh token to {BaseURL}/auth/logout and maps
// the JSON answer to a [goSession.RevokeResult]. A non-2xx status is a
// rejection (Success=false), not an error; only transport and decoding
// failures are returned as errors, wrapping [goSession.ErrRemoteRevoke].
//
// # What this package must NOT do
//
//   - Retry. Logout proceeds locally whatever the service answers.
//   - Touch the manager or its storage.
package remote
