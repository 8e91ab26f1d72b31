// Package middleware provides HTTP middleware for the memewall preview server:
// W3C Extended Log Format request logging, Prometheus request metrics keyed by
// route template, and gzip compression of JSON responses.
package middleware
