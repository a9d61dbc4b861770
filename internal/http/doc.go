// Package http provides HTTP handlers and middleware for the campus scheduler API.
//
// The router exposes the following endpoints under the /api prefix:
//   - POST /api/auth/new: registers a student account. Body: {"email","name",
//     "career","password"}. Responds with the new user and an access token.
//   - POST /api/auth: exchanges credentials for an access token. Body:
//     {"email","password"}.
//   - GET /api/auth/renew: issues a fresh token for the authenticated principal.
//   - GET /api/schedules, POST /api/schedules, PUT /api/schedules/{id},
//     DELETE /api/schedules/{id}: calendar event endpoints exchanging the
//     `scheduleDTO` payload defined in schedule_handler.go. A create request
//     carrying weekdays and semester bounds expands into a weekly batch.
//   - GET /api/availability: reports whether a user is free during a range,
//     identified by `email` or `user_id` plus `start` and `end` query params.
//   - GET /api/groups, POST /api/groups, PUT /api/groups/{id},
//     DELETE /api/groups/{id}: study group endpoints exchanging the `groupDTO`
//     payload defined in group_handler.go. Creating a group places a study
//     session on every member's calendar.
//
// All endpoints except registration and login require a bearer token. Request
// and response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
