package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"watch", "map", "bridge", "profile"} {
		assert.Truef(t, names[want], "missing subcommand %q", want)
	}
}

func TestBridgeSubcommands(t *testing.T) {
	bridgeCmd := newBridgeCmd()
	names := make(map[string]bool)
	for _, c := range bridgeCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["add"])
	assert.True(t, names["remove"])
	assert.True(t, names["list"])
}

func TestParseBridgePair(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantA   int64
		wantB   int64
		wantErr bool
	}{
		{name: "valid pair", args: []string{"30000142", "30002187"}, wantA: 30000142, wantB: 30002187},
		{name: "non numeric", args: []string{"Jita", "30002187"}, wantErr: true},
		{name: "same system", args: []string{"30000142", "30000142"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, err := parseBridgePair(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, a)
			assert.Equal(t, tt.wantB, b)
		})
	}
}
