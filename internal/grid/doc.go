// Package grid holds gridded climate fields and the reductions the regional
// stages apply to them.
//
// Fields follow the HadUK-Grid layout: values sit on cell centres given by
// projection_x_coordinate (easting) and projection_y_coordinate (northing) in
// a projected CRS, by default EPSG:27700 (British National Grid) at 1 km.
// Cells over the sea are NaN. A [Series] is a daily stack of fields on one
// grid; reductions over time follow the no-skip convention, so one NaN day
// makes the reduced cell NaN.
//
// A [Raster] is the north-up, regularly spaced materialisation of a field
// that point sampling runs against. Rasters can be written to and read from
// ESRI ASCII grid files.
package grid
