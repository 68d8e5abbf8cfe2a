// Package api provides the HTTP API for Student Ally Core.
//
// It exposes the authentication flows for users and administrators, the
// administrator directory, and the alumni, job, event, donation,
// mentorship and success story resources.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
