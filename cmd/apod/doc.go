// Package main hosts the apod CLI entrypoint and command graph.
//
// Commands fetch Astronomy Picture of the Day entries into the local image
// cache, inspect what is cached, and set cached images as the desktop
// background. Configuration resolution, logger construction, and request
// correlation ids live in commandContext so subcommands only deal with
// presentation.
package main
