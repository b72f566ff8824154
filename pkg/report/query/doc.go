// Package query validates report queries and fills in their defaults.
package query
