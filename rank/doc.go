// Package rank scores stored image vectors against a query vector by cosine
// similarity and returns the top-K matches. Ranking is an exhaustive scan:
// every candidate is scored, then a stable descending sort keeps input order
// for equal scores so identical inputs always yield identical output.
package rank
