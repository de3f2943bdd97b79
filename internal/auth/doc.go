// Package auth authenticates callers of the voice API.
//
// Callers present an HS256 JWT signed with security.jwt.secret. The token's
// role claim maps to a fixed permission set: the skill adapter may execute
// directives, viewers may read the audit log and subscribe to events, and
// admins may do both. There is no user store; tokens are provisioned out of
// band with IssueToken.
package auth
