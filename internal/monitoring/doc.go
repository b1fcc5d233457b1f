/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
coordination core, tracking HTTP requests, syscall executions, IPC
throughput, capability denials, and scheduler activity.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.MessagesSent.Inc()
	metrics.PermissionDenials.Inc()

	// Time syscall executions
	timer := monitoring.NewTimer(metrics, "ipc.send")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Each collector owns its own registry, so serve it explicitly:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	handler := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
	router.GET("/metrics", gin.WrapH(handler))
*/
package monitoring
