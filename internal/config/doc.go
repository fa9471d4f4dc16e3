// Package config loads git-dirdiff configuration from multiple sources with
// koanf.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GIT_DIRDIFF_TOOL, GIT_DIRDIFF_LOG_LEVEL, etc.)
//  3. Config file (--config, or $XDG_CONFIG_HOME/git-dirdiff/config.{yaml,yml,json,toml})
//  4. Built-in defaults
//
// Git's own diff.tool configuration is read separately by the difftool
// package; the tool key here only overrides it.
package config
