// Package config loads oi-clusters settings from an optional YAML file.
//
// The file supports ${VAR} environment interpolation. A .env file in the
// working directory is loaded first, and API keys and the listen port can be
// overridden from the environment without touching the file.
package config
