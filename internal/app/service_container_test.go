package app

import (
	"context"
	"testing"

	"go-intents/internal/config"
	"go-intents/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intentNetwork(t *testing.T, name string, chainID int) *NetworkServices {
	t.Helper()
	svc, err := services.NewIntentService(name, config.NetworkConfig{
		ChainID:    chainID,
		Name:       name,
		EntryPoint: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Enabled:    true,
	}, nil)
	require.NoError(t, err)
	return &NetworkServices{Name: name, Intents: svc}
}

func TestServiceContainer_NetworkResolution(t *testing.T) {
	c := NewServiceContainer("sepolia", nil, intentNetwork(t, "anvil", 31337), intentNetwork(t, "Sepolia", 11155111))

	assert.Equal(t, []string{"Sepolia", "anvil"}, c.Networks())

	svc, err := c.Intents("")
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), svc.ChainID().Int64())

	svc, err = c.Intents("ANVIL")
	require.NoError(t, err)
	assert.Equal(t, "anvil", svc.Network())

	_, err = c.Intents("mainnet")
	assert.ErrorContains(t, err, "not configured")
}

func TestServiceContainer_SingleNetworkIsDefault(t *testing.T) {
	c := NewServiceContainer("", nil, intentNetwork(t, "anvil", 31337))

	svc, err := c.Intents("")
	require.NoError(t, err)
	assert.Equal(t, "anvil", svc.Network())
}

func TestServiceContainer_SubmitterRequiresTransactions(t *testing.T) {
	c := NewServiceContainer("anvil", nil, intentNetwork(t, "anvil", 31337))

	_, err := c.Submitter("anvil")
	assert.ErrorContains(t, err, "not available on anvil")

	_, err = c.Submitter("mainnet")
	assert.Error(t, err)
}

func TestServiceContainer_NetworkSignerSelection(t *testing.T) {
	c := NewServiceContainer("", nil)

	s, err := c.networkSigner(context.Background(), config.NetworkConfig{ChainID: 31337})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = c.networkSigner(context.Background(), config.NetworkConfig{
		ChainID:    31337,
		PrivateKey: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", s.Address().Hex())

	_, err = c.networkSigner(context.Background(), config.NetworkConfig{KMSEnabled: true, KMSKeyAlias: "solver"})
	assert.ErrorContains(t, err, "kms is disabled")
}
