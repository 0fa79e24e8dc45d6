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

package logging

import (
	"bytes"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Errorf("first %d", 1)
	l.Warnf("second")
	l.Verbosef("hidden")
	l.Tracef("hidden")
	expect := "[error] first 1\n[warn] second\n"
	if buf.String() != expect {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestIndentation(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelTrace)
	l.Enter()
	l.Tracef("nested")
	l.Leave()
	l.Leave()
	l.Tracef("top")
	expect := "  [trace] nested\n[trace] top\n"
	if buf.String() != expect {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	if l.Enabled(LevelError) || l.Level() != LevelSilent {
		t.Fatalf("expected a nil logger to be silent")
	}
	l.Enter()
	l.Errorf("ignored")
	l.Leave()
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"silent", "error", "warn", "verbose", "TRACE"} {
		if _, err := ParseLevel(name); err != nil {
			t.Fatal(err)
		}
	}
	if l, _ := ParseLevel(""); l != LevelSilent {
		t.Fatalf("expected the empty level to be silent, found %v", l)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
