package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/iwes-fetch/internal/progress"
	"github.com/tsukumogami/iwes-fetch/internal/provider"
)

func TestStatusNotifier_Downloading(t *testing.T) {
	var buf bytes.Buffer
	n := newStatusNotifier(progress.NewStatusPrinter(&buf, false))

	n.Notify("iwes", provider.StatusDownloading)
	require.Equal(t, "Downloading iwes...\n", buf.String())
}

func TestStatusNotifier_Quiet(t *testing.T) {
	var buf bytes.Buffer
	n := newStatusNotifier(progress.NewStatusPrinter(&buf, true))

	n.Notify("iwes", provider.StatusCheckingForUpdate)
	n.Notify("iwes", provider.StatusDownloading)
	require.Zero(t, buf.Len())
}
