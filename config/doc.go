// Package config loads ringtail configuration.
//
// Configuration is assembled in layers, each overriding only the fields it sets:
//
//  1. Built-in defaults (Defaults)
//  2. File layers in the order added; .json files are parsed with encoding/json,
//     .yaml and .yml with gopkg.in/yaml.v3
//  3. RINGTAIL_* environment variables
//
// Command-line flags are applied by the caller on top of the result, after which
// Validate should be called once more.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("ringtail.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//
// # File Format
//
//	buffer:
//	  capacity: 100
//	  policy: reject
//	source:
//	  kind: nats
//	  nats:
//	    url: nats://localhost:4222
//	    subject: logs.>
//	    reconnect_wait: 2s
//	http:
//	  port: 8080
//
// Durations may be written as Go duration strings ("2s", "500ms").
//
// # Environment Variables
//
//	RINGTAIL_CAPACITY, RINGTAIL_POLICY, RINGTAIL_SOURCE, RINGTAIL_PATH, RINGTAIL_FOLLOW,
//	RINGTAIL_NATS_URL, RINGTAIL_NATS_SUBJECT, RINGTAIL_NATS_QUEUE, RINGTAIL_WS_URL,
//	RINGTAIL_HTTP_PORT, RINGTAIL_METRICS_PATH, RINGTAIL_LOG_LEVEL, RINGTAIL_LOG_FORMAT
//
// # Security
//
// Config files must have a known extension, be regular files and stay under
// 10MB. JSON nesting depth is bounded before parsing.
package config
