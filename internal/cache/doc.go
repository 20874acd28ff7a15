// Package cache provides a small generic LRU cache.
//
//	c := cache.New[string, []glyph.Position](256)
//	c.Set("hello", positions)
//	p, ok := c.Get("hello")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
