// Package connectors provides implementations of the Connector interface
// for land-record sources. Each connector knows how to query recorded
// documents from a specific source type (county API, state portal, mock).
//
// Connectors are created through the Factory at dispatch time and closed
// when the dispatch completes.
package connectors
