// Package httpapi exposes the screener's HTTP surface: the websocket
// upgrade endpoint, the cached reference ticker lists, the refresh
// triggers, and the technical rating computation.
package httpapi
