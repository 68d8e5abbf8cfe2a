// Package donations stores fundraising initiatives and the mentorship
// sign-ups collected on the same page.
//
// Contributions only ever add to an initiative's raised total; there is no
// way to lower it through this package.
package donations
