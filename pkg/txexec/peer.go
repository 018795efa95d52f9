package txexec

import (
	"bytes"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// executeAddPeer inserts the peer into the directory's durable backing
// store. It does not itself touch the in-memory pkg/peerdir directory that
// derives f/leader/proxy_tail — the engine's commit path reconciles that
// from the committed transaction once this write lands (spec §4.3, §4.5).
func executeAddPeer(tx *worldstate.WriteTx, c wire.AddPeer) error {
	peers, err := tx.GetPeers()
	if err != nil {
		return err
	}
	for _, p := range peers {
		if bytes.Equal(p.PublicKey, c.PublicKey) {
			return nil
		}
	}
	peers = append(peers, worldstate.Peer{
		PublicKey: c.PublicKey,
		Address:   c.Address,
		IsLive:    true,
	})
	return tx.PutPeers(peers)
}
