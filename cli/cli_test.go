package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCLI__EndpointConfig(t *testing.T) {
	cases := []struct {
		name     string
		cli      CLI
		wantKind string
		wantErr  bool
	}{
		{
			name:     "http mode",
			cli:      CLI{Host: "localhost", Port: 8000, Timeout: time.Minute},
			wantKind: "http",
		},
		{
			name:     "sagemaker mode",
			cli:      CLI{Region: "us-east-1", EndpointName: "cosmos-reason1-endpoint"},
			wantKind: "sagemaker",
		},
		{
			name:    "both modes",
			cli:     CLI{Host: "localhost", Region: "us-east-1", EndpointName: "cosmos-reason1-endpoint"},
			wantErr: true,
		},
		{
			name:    "neither mode",
			cli:     CLI{},
			wantErr: true,
		},
		{
			name:    "region without endpoint name",
			cli:     CLI{Region: "us-east-1"},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := c.cli.endpointConfig()
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.wantKind, cfg.Kind)
			require.NoError(t, cfg.Validate())
		})
	}
}
