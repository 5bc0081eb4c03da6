// Package runtime holds the process-wide dependency injection container.
package runtime

import "go.uber.org/dig"

var container *dig.Container

func init() {
	container = dig.New()
}

// GetContainer returns the global dig container for registration/resolution.
func GetContainer() *dig.Container {
	return container
}
