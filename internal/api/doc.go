// Package api implements the authenticated HTTP access layer for the Ambio
// platform API.
//
// It consists of three cooperating pieces:
//
//   - TokenStore: file-backed storage for the access/refresh token pair,
//     surviving process restarts.
//   - Client: the request core. It attaches the bearer token, serializes
//     JSON bodies, and transparently recovers from access-token expiry by
//     refreshing and replaying the request exactly once.
//   - RefreshCoordinator: serializes concurrent refresh attempts so a burst
//     of simultaneously-expiring requests produces exactly one call to the
//     refresh endpoint. All waiters observe the same outcome.
//
// SECURITY: Token values are never logged by any part of this package. Only
// events (stored, refreshed, cleared) appear in the logs.
package api
