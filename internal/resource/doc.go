// Package resource models the IoT resource network as the diagnostics
// dispatcher sees it.
//
// It holds only the boundary types: a Resource handle with its advertised
// types and interfaces, the Representation exchanged by GET/PUT, result
// Codes, the ActionSet descriptor handed to a group backend, and the two
// collaborator interfaces (Transport and GroupManager) that perform the
// remote work. Wire encoding is owned by the collaborator implementation,
// see internal/bridges/oic.
package resource
