// Package report renders consolidation results as human-readable
// inventories.
//
// Two writers are provided. [WriteHTML] builds the report as an HTML node
// tree and serializes it with html.Render, optionally embedding a scaled
// thumbnail per element. [WriteXLSX] produces a workbook with one row per
// element plus a summary sheet.
//
// Both writers consume a [Data] value, so they can be fed from a
// consolidation result without this package knowing where the numbers
// came from.
package report
