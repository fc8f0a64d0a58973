// Package api is the HTTP+JSON client for the promstudy backend.
//
// # Endpoints
//
//   - POST /token                     exchange credentials for a bearer token
//   - GET  /users/me                  profile of the token's owner
//   - POST /signup                    create an account with its profile
//   - GET  /stats/prompts/count       number of published prompts
//   - GET  /stats/prompts/total-likes net likes across all prompts
//
// # Error Handling
//
// Non-2xx responses become *HTTPError carrying the status code and the
// server's "detail" text. Failures that never produced a response (dial
// errors, timeouts, cancelled contexts) wrap ErrUnavailable. Use errors.Is,
// errors.As or IsStatus to tell them apart.
//
// The client holds no credentials; callers pass the token per call.
package api
