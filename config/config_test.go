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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wdamron/resolve/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	expect := &Config{Source: 8, MaxIncorporationRounds: 10000, FallbackWeight: 4, LogLevel: "silent"}
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("unexpected defaults (-expect +actual):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Policy() != Modern || !cfg.AllowBoxing() {
		t.Fatalf("unexpected policy %q", cfg.Policy())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "resolve.yaml", "source: 7\nfallback_weight: 2\nlog_level: trace\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	expect := &Config{Source: 7, MaxIncorporationRounds: 10000, FallbackWeight: 2, LogLevel: "trace"}
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("unexpected config (-expect +actual):\n%s", diff)
	}
	if cfg.Policy() != Legacy {
		t.Fatalf("expected the legacy policy below source 8, found %q", cfg.Policy())
	}
	if cfg.Level() != logging.LevelTrace {
		t.Fatalf("unexpected level %v", cfg.Level())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "resolve.toml", "source = 4\nincorporation = \"modern\"\nmax_incorporation_rounds = 50\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != 4 || cfg.MaxIncorporationRounds != 50 || cfg.FallbackWeight != 4 {
		t.Fatalf("unexpected config: %#+v", cfg)
	}
	if cfg.Policy() != Modern || cfg.AllowBoxing() {
		t.Fatalf("expected an explicit modern policy without boxing: %#+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	for name, content := range map[string]string{
		"bad.json":   "{}",
		"bad.yaml":   "incorporation: eager\n",
		"rounds.yml": "max_incorporation_rounds: -1\n",
		"level.toml": "log_level = \"loud\"\n",
	} {
		if _, err := Load(writeFile(t, name, content)); err == nil {
			t.Fatalf("expected an error loading %s", name)
		} else {
			t.Logf("%s: %v", name, err)
		}
	}
}
