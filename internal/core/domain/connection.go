package domain

// StreamerID is the canonical broadcaster login that partitions
// connections and roles.
type StreamerID string

// ConnectionHandle identifies one open realtime channel to a viewer's
// client. Handles are opaque and unique per active channel; the
// transport layer mints them at upgrade time.
type ConnectionHandle string
