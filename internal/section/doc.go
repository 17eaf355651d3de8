// Package section exposes a vault file as named, fixed-boundary address spaces.
//
// All I/O happens inside [File.Within], which hands the callback a [Window]
// bounded to one section. Offsets passed to a Window are relative to the
// section start, and every read, write, and seek is checked against the
// section's end before it reaches the file. A Window is only valid while its
// callback runs; using it afterwards fails with a [*BoundsError].
package section
