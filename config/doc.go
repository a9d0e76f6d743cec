// Package config loads the configuration of the Spiralverse authority daemon.
//
// Values are resolved in order: built-in defaults, then the YAML file, then
// SPIRALVERSE_* environment variables. The key store password is read only
// from SPIRALVERSE_KEYSTORE_PASSWORD and never from the file.
//
// Example configuration:
//
//	protocol:
//	  chaos_iterations: 1000
//	  block_size: 16
//	  consensus_threshold: 7
//	  max_payload_size: 1048576
//	keystore:
//	  dir: "/var/lib/spiralverse/keys"
//	  key_name: "master"
//	server:
//	  address: "127.0.0.1:7443"
//	  request_timeout: 10s
//	replay:
//	  enabled: true
//	  dir: "/var/lib/spiralverse/replay"
//	  window: 24h
//	logging:
//	  level: "info"
//	  format: "json"
package config
