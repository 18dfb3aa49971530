// Package config loads process configuration with koanf.
//
// Sources, lowest precedence first: built-in defaults, YAML files given with
// [WithFile], and environment variables prefixed with FORGE_. A .env file can
// seed the environment with [WithDotenv]. Nested keys use a double
// underscore:
//
//	FORGE_SERVER__ADDRESS=:9000
//	FORGE_LOG__LEVEL=debug
//	FORGE_EVENTS__BACKEND=redis
//	FORGE_REDIS__URL=redis://localhost:6379/0
//	FORGE_MIDDLEWARE__CORS_ORIGINS=https://a.example,https://b.example
//
// The same keys in YAML:
//
//	server:
//	  address: ":9000"
//	log:
//	  level: debug
package config
