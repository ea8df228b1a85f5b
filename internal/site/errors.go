package site

import "errors"

// Sentinel domain errors used to classify high-level pipeline failures.
// They should always be wrapped with contextual information at the call site.
var (
	ErrFetch   = errors.New("docsmith: fetch error")
	ErrScan    = errors.New("docsmith: scan error")
	ErrExtract = errors.New("docsmith: extract error")
	ErrContent = errors.New("docsmith: content error")
	ErrTheme   = errors.New("docsmith: theme error")
	ErrRender  = errors.New("docsmith: render error")
	ErrAssets  = errors.New("docsmith: asset error")
	ErrLinks   = errors.New("docsmith: link error")
)
