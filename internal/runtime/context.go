// Package runtime wires the catalog services for one command invocation.
package runtime

// Context contains build metadata that is not user-configurable.
// It is injected at startup and kept out of the configuration system.
type Context struct {
	Version   string // Git version tag from build
	BuildDate string // time when the binary was built
}
