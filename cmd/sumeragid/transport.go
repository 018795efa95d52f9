// Copyright 2025 Certen Protocol
package main

import (
	"context"
	"log"

	"github.com/certen/sumeragi-core/pkg/sumeragi"
)

// logTransport is a process-local stand-in for the real Transport spec §6
// leaves out of scope ("on-wire RPC transport ... only their contracts with
// the core are specified"). It satisfies sumeragi.Transport so sumeragid can
// start standalone; it never delivers a message to another process. A
// deployment with more than one replica substitutes a real implementation
// of sumeragi.Transport here.
type logTransport struct {
	logger *log.Logger
}

func newLogTransport(logger *log.Logger) *logTransport {
	return &logTransport{logger: logger}
}

func (t *logTransport) Send(ctx context.Context, addr string, msg []byte) error {
	t.logger.Printf("transport: send %d bytes to %s (no-op: single-process transport)", len(msg), addr)
	return nil
}

func (t *logTransport) BroadcastAll(ctx context.Context, msg []byte) error {
	t.logger.Printf("transport: broadcast %d bytes (no-op: single-process transport)", len(msg))
	return nil
}

func (t *logTransport) Subscribe(kind sumeragi.SubscriptionKind, handler func(senderPublicKey []byte, msg []byte)) {
	t.logger.Printf("transport: subscribed to kind %d (no inbound delivery without a real transport)", kind)
}
