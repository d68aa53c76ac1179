// Package gateway wires the kirim-gateway server together and exposes
// its HTTP surface.
//
// A [Gateway] owns the session registry, the event hub, the messaging
// service and broadcast pipeline, and the HTTP server fronting them.
// The JSON API covers single sends (/send-message, /send-media), file
// uploads (/upload), and synchronous batch broadcasts (/broadcast);
// /ws upgrades to a websocket observer channel that receives an init
// catalog snapshot followed by live lifecycle events and accepts
// create-session requests. Uploaded media is served back under
// /assets/uploads/.
//
// Bearer-token auth wraps the API endpoints when auth.jwt_secret is
// configured; health probes, static assets, and the websocket upgrade
// are always open. Run blocks until the context is canceled and then
// shuts the server, workers, hub, and store down in order.
package gateway
