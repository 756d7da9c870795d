// Package cli implements the billingctl command tree.
package cli
