// Package config loads client configuration from an optional file and the
// environment.
//
// Keys are read through viper. Every key can be overridden by an
// environment variable with the CLICKUP_ prefix, dots replaced by
// underscores: retry.count becomes CLICKUP_RETRY_COUNT. Token values may be
// secret references (see package secret).
//
//	base_url: https://api.clickup.com/api/v2/
//	personal_token: file:/run/secrets/clickup_token
//	retry:
//	  count: 3
//	  base_delay: 2s
//	breaker:
//	  failure_threshold: 5
//	  duration: 30s
//	cache:
//	  enabled: true
//	  backend: redis
//	  redis_addr: localhost:6379
package config
