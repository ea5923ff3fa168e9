// Package exporter writes tabular exports of a generated deck.
//
// WriteCSV and WriteXLSX write a header row and records atomically; CSV files
// carry a UTF-8 BOM so Excel detects the encoding. Manifest is a
// deck.Document that collects the text of every slide and saves it through
// one of them:
//
//	slide,layout_index,title,subtitle
//	1,0,Intro to HPC,"Tutorial #3
//	UAB IT Research Computing
//	2023-04-01"
package exporter
