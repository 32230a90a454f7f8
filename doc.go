// Package picfix is the core of a raster image editor: a bounded undo/redo
// history of committed edits, live filter previews derived from the last
// commit, quarter-turn rotation, mirroring and cropping, lossless export, and
// re-encoding to a target file size.
//
// All editor state lives in a Session. A Session is driven one action at a
// time and is not safe for concurrent use.
//
//	s := picfix.New()
//	if err := s.Load(f); err != nil { ... }
//	s.PreviewFilters(picfix.FilterParams{Brightness: 120, Contrast: 100}) // slider drag
//	s.CommitFilters(picfix.FilterParams{Brightness: 120, Contrast: 100})  // slider release
//	s.Rotate(90)
//	s.Undo()
//	err = s.Export(w)
package picfix
