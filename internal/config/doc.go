// Package config handles configuration loading for kirim-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${KIRIM_JWT_SECRET}"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "localhost:6969"
//	  base_url: "https://wa.example.com"   # public URL for upload links
//
// Session catalog persistence:
//
//	store:
//	  driver: "file"            # file (JSON document) or sqlite
//	  path: "sessions.json"
//
// Uploads and platform driver:
//
//	uploads:
//	  dir: "assets/uploads"
//	platform:
//	  driver: "sandbox"
//
// Recipient addressing and broadcast pacing:
//
//	messaging:
//	  country_code: "62"
//	  broadcast_delay: "30s"    # default delay between broadcast recipients
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
