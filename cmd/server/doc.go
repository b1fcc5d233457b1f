// Command server runs the nucleus coordination core behind its HTTP
// syscall gateway.
//
// Configuration comes from environment variables (PORT, KERNEL_CPUS,
// LOG_LEVEL, ...) with optional TOML overrides via NUCLEUS_CONFIG; the
// -port and -cpus
// flags override both. The process shuts down gracefully on SIGINT or
// SIGTERM, draining in-flight requests for up to ten seconds.
package main
