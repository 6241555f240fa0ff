// Package metadata provides the typed tree stages report after a run.
//
// Each stage fills an Object with scalar values, arrays and nested objects.
// Objects keep insertion order so the serialized document is stable:
//
//	m := metadata.NewObject()
//	m.Set("count", metadata.Int(3))
//	stats := metadata.NewObject()
//	stats.Set("average", metadata.Float(1.5))
//	m.Set("statistic", metadata.ObjectValue(stats))
//
// Values marshal to plain JSON (numbers, strings, booleans, arrays and
// objects). Non-finite floats are emitted as null.
package metadata
