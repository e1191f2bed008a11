// Package stash talks to a Stash server's GraphQL API. The client covers
// the small surface a scan needs: walking scene IDs, reading a scene's
// file and URL state, and writing accepted URLs and the marker tag back.
package stash
