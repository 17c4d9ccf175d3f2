// Package http provides HTTP handlers and middleware for the scheduling API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","principal"} with the token also surfaced
//     via the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the token extracted from the
//     Authorization header or session cookie. Returns 204 No Content.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: account management
//     exchanging the `userDTO` payload in user_handler.go. Mutations are
//     admin-only.
//   - GET /schedules, POST /schedules, GET/DELETE /schedules/{id}: schedule
//     management. GET /schedules/{id}/chain reports whether the schedule's
//     reservations run strictly back to back.
//   - GET /reservations, POST /reservations, PUT/DELETE /reservations/{id}:
//     reservation management. Write responses carry advisory conflict
//     warnings; hard same-schedule overlaps are rejected with 409.
//   - POST /availability, POST /availability/facility: interval probes against
//     one schedule or one building/room pair.
//   - POST /suggestions, POST /suggestions/common: free-slot search for one
//     schedule or a participant group.
//   - POST /conflicts/resolutions, GET /conflicts/report: resolution
//     strategies for a reservation pair, and the per-user overlap inventory.
//   - GET /calendar/daily?date=YYYY-MM-DD, GET /calendar/weekly?start=...:
//     day and week views of the caller's reservations.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
