package feed

import "sort"

// rankPosts orders posts newest-first: numeric id descending (ids are
// assigned monotonically upstream), publish timestamp descending as the
// tie-break. Extraction order is preserved for full ties.
func rankPosts(posts []rawPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := idOrZero(posts[i].ID), idOrZero(posts[j].ID)
		if a != b {
			return a > b
		}
		return posts[i].dateTs > posts[j].dateTs
	})
}

func idOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// clampLimit bounds a caller-supplied page size to [1, max].
func clampLimit(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// project strips the pipeline-only fields, leaving the public Post shape.
func project(posts []rawPost) []Post {
	out := make([]Post, len(posts))
	for i := range posts {
		out[i] = posts[i].Post
	}
	return out
}
