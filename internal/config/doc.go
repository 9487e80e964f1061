// Package config provides configuration types and loading for the edge
// gateway.
//
// Configuration is read from a YAML file. ${VAR} and ${VAR:-default}
// references are substituted from the environment before parsing, and
// "$$" yields a literal dollar sign:
//
//	listen: ":8080"
//	upstream: "http://orders.internal:8081"
//	auth:
//	  jwt:
//	    secret: "${JWT_SECRET}"
//	idempotency:
//	  maxBodyBytes: 1048576
//
// LoadConfig applies defaults and validates; the returned configuration is
// treated as read-only for the lifetime of the process.
package config
