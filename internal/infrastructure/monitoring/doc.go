/*
Package monitoring provides Prometheus metrics for the minicode server.

# Overview

Metrics live on a private registry owned by Metrics, so several collectors can
coexist in one process (tests build one per case). The collector also
implements playground.Recorder and is handed to the Workspace, which reports
preview runs, sandbox failures, relay traffic, dropped messages, saves and
debounced commits through it.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	ws, err := playground.New(ctx, playground.Options{Recorder: metrics, ...})
*/
package monitoring
