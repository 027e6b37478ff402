// Package regional turns gridded climate data and per-region gas statistics
// into region-level heating attributes: gas-year heating degree days,
// heating losses, thermal time constants and heat-free hours.
//
// Every stage works on region.Layer values in place. A layer gains one
// property column per quantity, named the way the published datasets name
// them (for example "2019 gas HDDs" or "Thermal time constant [h]").
package regional
