// Package config provides the runtime options and gallery definitions of
// showcase.
//
// Config is the flat set of options a command runs with. File is the parsed
// .showcase YAML document: one Gallery per configured gallery (source, layout,
// field mapping, paging and windowing settings) plus server, markdown and gate
// sections. Settings from a .env file and SHOWCASE_* variables are applied
// over the defaults before CLI flags.
package config
