package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driving/mcp"
)

func TestMCPCmd_Use(t *testing.T) {
	assert.Equal(t, "mcp [name]", mcpCmd.Use)
}

func TestMCPCmd_PortFlag(t *testing.T) {
	flag := mcpCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPCmd_RequiresServices(t *testing.T) {
	setupTestServices(t)
	SetServices(nil)

	_, err := executeCommand(t, "", "mcp")

	assert.ErrorIs(t, err, mcp.ErrMissingSearchService)
}
