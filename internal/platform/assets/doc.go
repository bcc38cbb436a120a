// Package assets implements store.AssetStore on top of an afero filesystem.
// Blobs are written flat under the store root with names of the form
// YYYYMMDD_<8 hex><ext>, the extension sniffed from the content.
package assets
