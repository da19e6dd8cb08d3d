// Package config loads donna's runtime configuration.
//
// Values come, in increasing precedence, from built-in defaults, an optional
// donna.yaml file, DONNA_-prefixed environment variables (nested keys use
// underscores, e.g. DONNA_WEBEX_CLIENT_ID) and command-line flags. The result
// is a typed Config validated before use; nothing else in the program reads
// the environment for settings.
package config
