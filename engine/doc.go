// Package engine provides helpers for working with the modernc.org/sqlite
// driver: opening connections with the pragmas the image store relies on and
// registering the vec_dim SQL scalar function.
// It keeps a thin surface so the store and its tests share one driver setup.
package engine
