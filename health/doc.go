// Package health tracks component health and serves it over HTTP.
//
// There are three states: healthy, degraded and unhealthy. A Monitor holds one
// Status per component, either pushed with Update as events happen or computed
// by a Check whenever the monitor is read. Aggregate reports the worst
// component state for the whole process:
//
//	monitor := health.NewMonitor("ringtail")
//	monitor.Update("source", health.Healthy("source", "reading"))
//	monitor.AddCheck("buffer", func() health.Status {
//	    if buf.IsClosed() {
//	        return health.Unhealthy("buffer", "closed")
//	    }
//	    return health.Healthy("buffer", "accepting lines")
//	})
//	server.Handle("/health", monitor.Handler())
//
// Error text passed through FromError is sanitized: URLs, file paths, IP
// addresses, ports and credential-looking pairs are replaced with placeholders.
//
// Monitor is safe for concurrent use. Checks run without the monitor's lock held.
package health
