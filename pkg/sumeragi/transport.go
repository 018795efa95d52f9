package sumeragi

import "context"

// SubscriptionKind tags which inbound stream a handler registers for
// (spec §6: "subscribe(kind ∈ {TX_INGEST, CONSENSUS}, handler)").
type SubscriptionKind int

const (
	KindTxIngest SubscriptionKind = iota
	KindConsensus
)

// Transport is the consumed collaborator of spec §6: three operations the
// engine requires, with no assumption of ordered or exactly-once delivery
// ("delivery may be reordered or lost; duplication is allowed. The engine
// is responsible for idempotence").
type Transport interface {
	// Send delivers msg point-to-point to the peer at addr.
	Send(ctx context.Context, addr string, msg []byte) error
	// BroadcastAll delivers msg to every known peer, excluding self.
	BroadcastAll(ctx context.Context, msg []byte) error
	// Subscribe registers handler for inbound messages of the given kind;
	// each delivery is tagged with the sender's public key.
	Subscribe(kind SubscriptionKind, handler func(senderPublicKey []byte, msg []byte))
}
