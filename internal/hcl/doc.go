// Package hcl provides the HCL implementation of config.Loader. It parses
// `settings` and `entity` blocks with hclparse and gohcl and evaluates entity
// property expressions into cty values.
//
// A configuration file looks like:
//
//	settings {
//	  log_level    = "debug"
//	  port         = 8080
//	  http_timeout = "10s"
//
//	  events {
//	    url       = "http://localhost:3000"
//	    namespace = "/"
//	  }
//	}
//
//	entity "http" {
//	  id = "6f1c2f7e-7c4b-4f1e-9d38-0b6a9a4a5d11"
//	  properties = {
//	    url     = "https://example.com/${env.API_PATH}"
//	    method  = upper("get")
//	  }
//	}
//
// Property expressions can read environment variables through `env` and call
// a small set of string and JSON functions.
package hcl
