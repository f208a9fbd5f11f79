package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

func entries(n int, distinguished map[int]bool) []ServerEntry {
	out := make([]ServerEntry, n)
	for i := 0; i < n; i++ {
		out[i] = ServerEntry{
			Address:              wire.Address{Host: "127.0.0.1", Port: uint16(10000 + i), ServerId: i},
			IsDistinguishLearner: distinguished[i],
		}
	}
	return out
}

func validTopology() Topology {
	return Topology{
		ServerNum:                          3,
		AcceptorSocketServerMaxConnections: 100,
		ServerConfigurationMap: ServerConfigurationMap{
			ServerList:   entries(3, nil),
			ProposerList: entries(3, nil),
			AcceptorList: entries(3, nil),
			LearnerList:  entries(3, map[int]bool{0: true}),
		},
	}
}

func TestTopology_Validate(t *testing.T) {
	t.Run("accepts a well-formed topology", func(t *testing.T) {
		topo := validTopology()
		require.NoError(t, topo.Validate())
	})

	t.Run("rejects a non-positive SERVER_NUM", func(t *testing.T) {
		topo := validTopology()
		topo.ServerNum = 0
		require.Error(t, topo.Validate())
	})

	t.Run("rejects a role list with the wrong length", func(t *testing.T) {
		topo := validTopology()
		topo.ServerConfigurationMap.AcceptorList = entries(2, nil)
		require.Error(t, topo.Validate())
	})

	t.Run("rejects a topology with no distinguished learner", func(t *testing.T) {
		topo := validTopology()
		topo.ServerConfigurationMap.LearnerList = entries(3, nil)
		require.Error(t, topo.Validate())
	})
}

func TestTopology_Accessors(t *testing.T) {
	topo := validTopology()

	require.Len(t, topo.Acceptors(), 3)
	require.Len(t, topo.Learners(), 3)

	dln := topo.DistinguishedLearners()
	require.Len(t, dln, 1)
	require.Equal(t, 0, dln[0].ServerId)
}

func TestReferencePort(t *testing.T) {
	require.Equal(t, uint16(5000), ReferencePort(5000, 0, RoleOffsetServer))
	require.Equal(t, uint16(5011), ReferencePort(5000, 1, RoleOffsetProposer))
	require.Equal(t, uint16(5022), ReferencePort(5000, 2, RoleOffsetAcceptor))
}

func TestDistinguishedLearnerCount(t *testing.T) {
	require.Equal(t, 1, DistinguishedLearnerCount(1))
	require.Equal(t, 1, DistinguishedLearnerCount(4))
	require.Equal(t, 2, DistinguishedLearnerCount(5))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoad_RejectsClientExportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.json")
	topo := validTopology()
	require.NoError(t, WriteClientExport(path, ClientExport{
		ServerAddressList: topo.Acceptors(),
		ServerNum:         topo.ServerNum,
	}))

	data, err := Load(path)
	require.Error(t, err, "a client-export file is not a valid Topology document")
	require.Nil(t, data)
}
