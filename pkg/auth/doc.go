// Package auth validates session tokens issued by the identity platform
// and projects their claims into access.Principal values.
//
// Gatehouse never issues production sessions; it is a consumer of the
// external session collaborator. Tokens are HS256 JWTs carrying the
// caller's user id, role, branch, and department. Validated tokens are
// cached in a small expirable LRU; token expiry is still enforced on
// cache hits.
package auth
