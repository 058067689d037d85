package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsukumogami/iwes-fetch/internal/errmsg"
)

// errorContext is filled in once the user config is loaded.
var errorContext = &errmsg.ErrorContext{}

// printInfo prints an informational message to stderr unless quiet mode is enabled
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Fprintln(os.Stderr, a...)
	}
}

// printInfof prints a formatted informational message to stderr unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Fprintf(os.Stderr, format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v interface{}) {
	if err := writeJSON(os.Stdout, v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// printError prints an error to stderr with suggestions if available.
func printError(err error) {
	errmsg.Fprint(os.Stderr, err, errorContext)
}

// fail prints err and exits with the code for its kind.
func fail(err error) {
	printError(err)
	exitWithCode(exitCodeFor(err))
}
