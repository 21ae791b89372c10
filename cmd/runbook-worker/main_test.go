package main

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("RUNBOOK_TEST_SET", "value")

	if got := getEnv("RUNBOOK_TEST_SET", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("RUNBOOK_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "valid", value: "25", want: 25},
		{name: "invalid falls back", value: "soon", want: 50},
		{name: "empty falls back", value: "", want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("RUNBOOK_TEST_INT", tt.value)
			}
			if got := getEnvInt("RUNBOOK_TEST_INT", 50); got != tt.want {
				t.Errorf("getEnvInt = %d, want %d", got, tt.want)
			}
		})
	}
}
