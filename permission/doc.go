// Package permission provides the permission registry, role masks, and the
// pure evaluator behind goSession's HasPermission query.
//
// # Permission names
//
// A permission is named "<resource>:<action>", for example "project:edit".
// Grants may use "<resource>:*" for every action on a resource and "*" for
// everything.
//
// # Mask sizes
//
// Supported widths: 64, 128, 256, and 512 bits. A width is selected at registry
// construction time. Bit positions are assigned by [Registry.Register] and are
// stable for the lifetime of the process.
//
// # What this package must NOT do
//
//   - Access storage or the network.
//   - Import goSession or session.
//   - Resize masks after registry construction.
package permission
