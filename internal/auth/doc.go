// Package auth provides authentication and authorisation for Student Ally Core.
//
// Principals live in two storage partitions that share one shape:
// standard users (students and alumni) and administrators
// (superadmin, admin, moderator). This package supplies:
//   - bcrypt password hashing with a configurable work factor
//   - HS256 access and refresh tokens signed with independent secrets
//   - sqlx-backed identity repositories for both partitions
//   - explicit per-endpoint role allow-lists (no implied hierarchy)
//   - first-boot superadmin seeding
//
// Tokens are stateless: validity is decided by signature and expiry alone.
package auth
