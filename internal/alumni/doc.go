// Package alumni stores alumni directory profiles and success stories.
package alumni
