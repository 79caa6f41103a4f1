package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "seatwatch ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunRejectsMissingConfiguration(t *testing.T) {
	t.Setenv("SEATWATCH_ENV_FILE", "does-not-exist.env")
	t.Setenv("SEATWATCH_CONFIG_FILE", "")
	t.Setenv("SEATWATCH_DEPARTURE_STATION_ID", "")
	t.Setenv("SEATWATCH_AUTH_TOKEN", "")

	rootCmd.SetArgs([]string{"--dry-run"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("Execute() error = %v, want ErrConfiguration", err)
	}
}
