// Package statsview serves runtime statistics over HTTP. It is only
// functional in builds with the statsview tag:
//
//	go build -tags statsview ./cmd/qnes
//
// The charts are then at http://localhost:12600/debug/statsview and the
// pprof handlers at http://localhost:12600/debug/pprof/.
package statsview

// DefaultAddress is used when no address is configured.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"
