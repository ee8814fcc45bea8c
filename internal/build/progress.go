package build

import "github.com/mvp-joe/modforge/internal/definition"

// ProgressReporter provides callbacks for reporting build progress.
// Implementations can display progress bars, log messages, or remain silent.
// OnComponentDone may be called from several goroutines at once.
type ProgressReporter interface {
	// OnDiscoveryStart is called when component discovery begins.
	OnDiscoveryStart(root string)

	// OnDiscoveryComplete is called with the number of components found.
	OnDiscoveryComplete(components int)

	// OnComponentDone is called after each component is compiled or fails.
	OnComponentDone(desc definition.Descriptor, cached bool, err error)

	// OnComplete is called once the build finishes, successfully or not.
	OnComplete(report *Report)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnDiscoveryStart(root string)                                       {}
func (NoOpProgressReporter) OnDiscoveryComplete(components int)                                 {}
func (NoOpProgressReporter) OnComponentDone(desc definition.Descriptor, cached bool, err error) {}
func (NoOpProgressReporter) OnComplete(report *Report)                                          {}
