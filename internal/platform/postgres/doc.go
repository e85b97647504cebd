// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx stdlib driver. It owns query construction,
// row scanning into domain entities, and the mapping of driver error codes
// onto the store error taxonomy.
package postgres
