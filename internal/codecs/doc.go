// Package codecs registers the transformations measured by each mode together
// with their prepare and check hooks.
//
// Compressors and decompressors work on the zlib streams of the raw corpus:
// prepare inflates every stream once so compressors start from the original
// bytes and decompressors can be checked against a reference result. Image
// modes work on PNG files, or WebP files for decode-webp, and measure
// throughput in megapixels.
package codecs
