// Package platform defines the boundary to the messaging platform engine.
//
// The gateway never talks to the platform directly; it goes through the
// Client interface (initialize, registration check, send text/media, and
// a lifecycle event stream). A Factory constructs one Client per session
// id, and again whenever a disconnected client is replaced.
//
// Two implementations live here: Sandbox, a scripted in-process driver
// used for development, and FakeClient, the test double. A production
// engine binding implements Client behind the same boundary.
package platform
