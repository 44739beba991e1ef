// Package postgres provides PostgreSQL implementations of the store
// interfaces, along with the embedded schema migrations they require.
package postgres
