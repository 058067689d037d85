package main

import (
	"fmt"

	"github.com/tsukumogami/iwes-fetch/internal/progress"
	"github.com/tsukumogami/iwes-fetch/internal/provider"
)

// statusNotifier shows provider status events on a StatusPrinter.
type statusNotifier struct {
	printer *progress.StatusPrinter
}

func newStatusNotifier(p *progress.StatusPrinter) *statusNotifier {
	return &statusNotifier{printer: p}
}

func (n *statusNotifier) Notify(id provider.LanguageServerID, status provider.Status) {
	switch status {
	case provider.StatusCheckingForUpdate:
		n.printer.Checking(fmt.Sprintf("Checking for %s updates", id))
	case provider.StatusDownloading:
		n.printer.Downloading(fmt.Sprintf("Downloading %s...", id))
	}
}
