// Package server assembles the process: it boots the kernel, registers
// the syscall providers, builds the gin router with its middleware
// chain, and owns the per-CPU tick source.
package server
