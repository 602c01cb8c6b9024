// Package hdr calibrates the photometric response curve of a camera from
// bracketed exposure samples, following Debevec and Malik's method: the
// unknown log-response g and per-point log-radiances are recovered jointly as
// the least-squares solution of a weighted linear system with a smoothness
// prior on g's second derivative.
package hdr
