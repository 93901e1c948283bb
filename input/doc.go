// Package input provides the line sources ringtail reads from.
//
// Every source implements Source: Run blocks, calling emit once per line, until
// the input ends, the context is cancelled or emit returns an error.
//
//   - FileSource: a file or stdin; with follow it tracks growth, truncation and recreation via fsnotify
//   - NATSSource: a core NATS subscription, optionally in a queue group
//   - WebSocketSource: a WebSocket client that reconnects with backoff until the server closes normally
//
// Message payloads from NATS and WebSocket are split on newlines, so one message
// may produce several lines.
//
//	src, err := input.New(cfg.Source,
//		input.WithLogger(logger),
//		input.WithMetrics(registry.CoreMetrics()),
//	)
//	if err != nil {
//		return err
//	}
//	err = src.Run(ctx, func(line string) error {
//		return buf.PushBack(line)
//	})
//
// Remote sources dial through pkg/retry; WithRetry tunes the backoff.
package input
