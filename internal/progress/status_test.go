package progress

import (
	"bytes"
	"testing"
)

func TestStatusPrinter_NonTTYSequence(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewStatusPrinter(out, false)

	p.Checking("Checking for iwes updates...")
	p.Downloading("Downloading iwes 2.3.1...")
	p.Finish("Installed iwes 2.3.1")

	want := "Checking for iwes updates...\nDownloading iwes 2.3.1...\nInstalled iwes 2.3.1\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestStatusPrinter_FinishWithoutMessage(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewStatusPrinter(out, false)

	p.Checking("Checking for iwes updates...")
	p.Finish("")
	p.Finish("")

	if out.String() != "Checking for iwes updates...\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestStatusPrinter_Quiet(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewStatusPrinter(out, true)

	p.Checking("a")
	p.Downloading("b")
	p.Finish("c")

	if out.Len() != 0 {
		t.Errorf("quiet printer wrote %q", out.String())
	}
}
