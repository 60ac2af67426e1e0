// Package users implements user registration: hashing the submitted password
// and persisting the (email, password_hash) record.
//
// The Store boundary has a PostgreSQL implementation over pgx and an in-memory
// one used when no database is configured. Measured decorators record the
// hashing and persistence durations without the service knowing about metrics.
package users
