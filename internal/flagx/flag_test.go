package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-f", "-r", "-l"}

func TestFilterArgs_ServerCommandLine(t *testing.T) {
	args := []string{
		"-c", "/etc/babypal/babypal.yaml",
		"-a", ":8080",
		"-d=postgres://babypal@db:5432/babypal?sslmode=disable",
		"-test.v",
		"-t", "30",
		"-r", "redis://cache:6379/0",
	}

	got := FilterArgs(args, serverFlags)
	assert.Equal(t, []string{
		"-a", ":8080",
		"-d=postgres://babypal@db:5432/babypal?sslmode=disable",
		"-t", "30",
		"-r", "redis://cache:6379/0",
	}, got)

	assert.Equal(t, []string{"-c", "/etc/babypal/babypal.yaml"}, FilterArgs(args, []string{"-c", "-config"}))
}

func TestFilterArgs_Values(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"no args", nil, []string{}},
		{"flag at end has no value", []string{"-l"}, []string{"-l"}},
		{"dash value is not consumed", []string{"-l", "-a", ":9090"}, []string{"-l", "-a", ":9090"}},
		{"equals form keeps dashes in the value", []string{"-s=--not-a-flag"}, []string{"-s=--not-a-flag"}},
		{"positional args dropped", []string{"serve", "-l", "debug", "extra"}, []string{"-l", "debug"}},
		{"long form is a different flag", []string{"--a=:8080"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, serverFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"yaml via -c", []string{"babypal-server", "-c", "babypal.yaml", "-a", ":8080"}, "babypal.yaml"},
		{"json via -config=", []string{"babypal-server", "-config=/srv/babypal.json"}, "/srv/babypal.json"},
		{"absent", []string{"babypal-server", "-a", ":8080", "-l", "debug"}, ""},
		{"later flag overrides", []string{"babypal-server", "-config", "a.yaml", "-c", "b.yaml"}, "b.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.want, ConfigFileFlag())
		})
	}
}
