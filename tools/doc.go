// Package tools implements the non-script tools exposed by the server.
//
// Each tool is a small, self-contained type: Dice rolls dice, Weather looks
// up current conditions for a city via the Open-Meteo APIs, and Currency
// converts between currencies via a latest-rates API. The remote tools take
// an injectable HTTPDoer so tests can substitute canned responses.
package tools
