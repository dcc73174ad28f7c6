package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	logger := newLogger(&stdout, &stderr, &file)

	logger.Debug("hidden")
	logger.Info("served", "user", "admin")
	logger.Warn("slow")
	logger.Error("broken")

	if strings.Contains(stdout.String(), "hidden") || strings.Contains(file.String(), "hidden") {
		t.Error("debug records should be dropped")
	}
	if !strings.Contains(stdout.String(), "served") || !strings.Contains(stdout.String(), "slow") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") {
		t.Error("error record leaked to stdout")
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("expected error on stderr, got %q", stderr.String())
	}
	for _, msg := range []string{"served", "slow", "broken"} {
		if !strings.Contains(file.String(), msg) {
			t.Errorf("expected %q in log file", msg)
		}
	}
}

func TestLevelRouterWithAttrs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := newLogger(&stdout, &stderr, nil).With("command", "serve")

	logger.Info("started")
	logger.Error("failed")

	if !strings.Contains(stdout.String(), "command=serve") {
		t.Errorf("expected attrs on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "command=serve") {
		t.Errorf("expected attrs on stderr, got %q", stderr.String())
	}
}
