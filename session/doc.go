// Package session carries the per-visitor kiosk state between requests.
//
// A visitor's State is a handful of typed flags. It is either kept server-side
// in a Store (memory or Redis) under an opaque id held in the visitor's cookie,
// or carried in the cookie itself as a signed token.
package session
