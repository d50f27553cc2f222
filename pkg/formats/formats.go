// Package formats reads and writes geodata file formats: L2J region files
// and the Wavefront OBJ collision meshes they are built from.
package formats
