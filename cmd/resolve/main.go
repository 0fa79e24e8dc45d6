// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command resolve runs the calls of scenario files through the overload resolver.
//
//   resolve check [-ll trace] [-c settings.toml] scenario.yaml
//   resolve version
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/wdamron/resolve"
	"github.com/wdamron/resolve/config"
	"github.com/wdamron/resolve/internal/logging"
	"github.com/wdamron/resolve/internal/scenario"
)

const version = "0.3.0"

func main() {
	cli := olive.NewCLI("resolve", "resolve checks method overload resolution and type inference scenarios", true)
	cli.AddSelectorArg("loglevel", "ll", "the resolver log level", false, []string{"silent", "error", "warn", "verbose", "trace"})

	checkCmd := cli.AddSubcommand("check", "resolve the calls of a scenario file", true)
	checkCmd.AddPrimaryArg("scenario", "the path to the scenario file", true)
	checkCmd.AddStringArg("config", "c", "a YAML or TOML configuration replacing the scenario's", false)
	checkCmd.AddFlag("diagnostics", "d", "print the structured diagnostic of each error")

	cli.AddSubcommand("version", "print the resolve version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		printError("Usage Error", err)
		os.Exit(2)
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "check":
		loglevel, _ := result.Arguments["loglevel"].(string)
		os.Exit(execCheckCommand(subResult, loglevel))
	case "version":
		fmt.Println("resolve " + version)
	}
}

// execCheckCommand runs a scenario and returns the exit status: 1 if any call did not meet
// its expectations.
func execCheckCommand(result *olive.ArgParseResult, loglevel string) int {
	path, _ := result.PrimaryArg()
	s, err := scenario.Load(path)
	if err != nil {
		printError("Scenario Error", err)
		return 2
	}
	if cfgPath, ok := result.Arguments["config"]; ok {
		cfg, err := config.Load(cfgPath.(string))
		if err != nil {
			printError("Config Error", err)
			return 2
		}
		s.Config = cfg
	}
	if loglevel != "" {
		s.Config.LogLevel = loglevel
	}
	level, err := logging.ParseLevel(s.Config.LogLevel)
	if err != nil {
		printError("Config Error", err)
		return 2
	}

	outcomes := s.Run(resolve.WithLogger(logging.New(os.Stderr, level)))
	r := &report{out: os.Stdout, color: logging.IsTerminal(os.Stdout), diagnostics: result.HasFlag("diagnostics")}
	failed := r.print(outcomes)
	if failed > 0 {
		return 1
	}
	return 0
}

func printError(kind string, err error) {
	if logging.IsTerminal(os.Stderr) {
		fmt.Fprintln(os.Stderr, logging.ErrorStyle.Sprint(kind), err)
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %v\n", kind, err)
}

// report renders outcomes as a table with one row per call.
type report struct {
	out         io.Writer
	color       bool
	diagnostics bool
}

func (r *report) print(outcomes []scenario.Outcome) int {
	nameWidth, callWidth := len("CALL"), len("EXPRESSION")
	for _, o := range outcomes {
		if w := runewidth.StringWidth(o.Name); w > nameWidth {
			nameWidth = w
		}
		if w := runewidth.StringWidth(o.Call); w > callWidth {
			callWidth = w
		}
	}
	fmt.Fprintf(r.out, "     %s  %s  %s\n", runewidth.FillRight("CALL", nameWidth), runewidth.FillRight("EXPRESSION", callWidth), "RESULT")

	failed := 0
	for _, o := range outcomes {
		status := r.paint(pterm.FgLightGreen, "ok  ")
		if !o.Passed() {
			status = r.paint(pterm.FgRed, "FAIL")
			failed++
		}
		fmt.Fprintf(r.out, "%s %s  %s  %s\n", status, runewidth.FillRight(o.Name, nameWidth), runewidth.FillRight(o.Call, callWidth), r.summary(o))

		indent := strings.Repeat(" ", 5)
		for _, m := range o.Mismatches {
			fmt.Fprintln(r.out, indent+r.paint(pterm.FgYellow, m))
		}
		if r.diagnostics && o.Err != nil {
			d := o.Err.Diagnostic()
			fmt.Fprintf(r.out, "%s%s %v\n", indent, d.Key, d.Args)
		}
	}

	total := fmt.Sprintf("%d calls, %d failed", len(outcomes), failed)
	if failed > 0 {
		total = r.paint(pterm.FgRed, total)
	}
	fmt.Fprintln(r.out, total)
	return failed
}

func (r *report) summary(o scenario.Outcome) string {
	if o.Err != nil {
		// only the first line of multi-candidate messages
		msg := o.Err.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		return r.paint(pterm.FgGray, o.Err.Kind.String()+": ") + msg
	}
	s := o.Method + " (" + o.Phase + ") : " + o.Return
	if o.TypeArgs != "" {
		s += " [" + o.TypeArgs + "]"
	}
	return s
}

func (r *report) paint(c pterm.Color, s string) string {
	if !r.color {
		return s
	}
	return c.Sprint(s)
}
